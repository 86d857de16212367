// t7upgrade is a command-line front end for the firmware upgrade pipeline.
//
// Synopsis:
//     t7upgrade upgrade -f firmware_10203_2024-01-01.bin -s 470012345 --dry-run
//
// Description:
//     upgrade: flash a new firmware image to a T7-family device
package main

import (
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/sampottinger/ljswitchboard/cmd/t7upgrade/commands"
	"github.com/sampottinger/ljswitchboard/cmd/t7upgrade/commands/upgrade"
	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

var knownCommands = map[string]commands.Command{
	"upgrade": &upgrade.Command{},
}

func main() {
	logging.SetLevel(logrus.InfoLevel)

	parser := flags.NewParser(nil, flags.Default)
	for name, command := range knownCommands {
		if _, err := parser.AddCommand(name, command.ShortDescription(), command.LongDescription(), command); err != nil {
			log.Fatal(err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
