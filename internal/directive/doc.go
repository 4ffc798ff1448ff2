// Package directive tokenizes the {{ ... }} directive language.
//
// It knows nothing about scopes, files or sections: it only finds directive
// spans in text, splits their bodies into tokens, and recognizes the few
// fixed shapes the interpreter cares about (assignments, ternaries, verbatim
// markers and $(name) references).
package directive
