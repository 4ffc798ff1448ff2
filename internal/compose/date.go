package compose

import (
	"fmt"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// dateTokens are the supported .NET-style specifiers, longest first.
var dateTokens = []string{
	"yyyy", "yy",
	"MMMM", "MMM", "MM", "M",
	"dddd", "ddd", "dd", "d",
	"HH", "H", "hh", "h",
	"mm", "m", "ss", "s",
	"fff", "tt", "zzz",
}

// FormatDate renders t with format. A format containing % is strftime;
// anything else uses .NET-style specifiers (yyyy-MM-dd HH:mm). Text in single
// quotes and characters after a backslash are literal.
func FormatDate(t time.Time, format string) string {
	if strings.Contains(format, "%") {
		return strftime.Format(format, t)
	}

	var b strings.Builder
	for i := 0; i < len(format); {
		switch format[i] {
		case '\'':
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				b.WriteString(format[i+1:])
				return b.String()
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		case '\\':
			if i+1 < len(format) {
				b.WriteByte(format[i+1])
			}
			i += 2
			continue
		}
		tok := matchToken(format[i:])
		if tok == "" {
			b.WriteByte(format[i])
			i++
			continue
		}
		b.WriteString(renderToken(t, tok))
		i += len(tok)
	}
	return b.String()
}

func matchToken(s string) string {
	for _, tok := range dateTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func renderToken(t time.Time, tok string) string {
	hour12 := t.Hour() % 12
	if hour12 == 0 {
		hour12 = 12
	}
	switch tok {
	case "yyyy":
		return fmt.Sprintf("%04d", t.Year())
	case "yy":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return fmt.Sprint(int(t.Month()))
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "dd":
		return fmt.Sprintf("%02d", t.Day())
	case "d":
		return fmt.Sprint(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return fmt.Sprint(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12)
	case "h":
		return fmt.Sprint(hour12)
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return fmt.Sprint(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return fmt.Sprint(t.Second())
	case "fff":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "tt":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "zzz":
		return t.Format("-07:00")
	}
	return tok
}
