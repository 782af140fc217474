package runner

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/lanfinder/pkg/version"
)

const banner = `
   __                  _____          __
  / /___ ____  ___ ___/ __(_)__  ___/ /__ ____
 / / __ '/ _ \/ -_) _/ _// / _ \/ _  / -_) __/
/_/\_,_/_//_/\__/__/_/ /_/_//_/\_,_/\__/_/
`

// showBanner is used to show the banner to the user
func showBanner(mode Mode) {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\t%s %s\n\n", mode, version.GetVersion())
}
