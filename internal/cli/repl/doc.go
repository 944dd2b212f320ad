// Package repl provides the interactive mode of memkv-cli.
//
// Each line is sent to the server as one command and the reply printed
// as received. "help" lists the known verbs, "exit" leaves without
// telling the server, and quit/close leave after the server's OK.
package repl
