package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// VarsCmd implements the 'vars' command.
type VarsCmd struct {
	Input string `short:"i" help:"Input directory (overrides config)"`
}

func (v *VarsCmd) Run(_ *Global, root *CLI) error {
	return RunVars(root.Config, v.Input, os.Stdout)
}

// RunVars prints the scope dump of the variables file.
func RunVars(configPath, input string, out io.Writer) error {
	cfg, err := loadConfig(configPath, BuildFlags{Input: input})
	if err != nil {
		return err
	}
	stack, err := site.New(cfg).LoadVariables()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(out, stack.Dump())
	return nil
}
