package commands

import (
	"github.com/jessevdk/go-flags"
)

// Command is the interface each verb (like "upgrade" of "t7upgrade
// upgrade") implements.
type Command interface {
	flags.Commander

	// ShortDescription explains what this verb does in one line.
	ShortDescription() string

	// LongDescription explains what this verb does in more detail.
	LongDescription() string
}
