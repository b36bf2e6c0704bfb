package runner

import (
	"github.com/projectdiscovery/gologger"
)

var banner = `
       __   _      __   _                         __
  ___ / /  (_)__ / /  (_)__  ___ _______  ___/ /
 / _ \/ _ \/ (_-</ _ \/ / _ \/ _ '/ __/ _ \/ _  /
/ .__/_//_/_/___/_//_/_/_//_/\_, /_/  \___/\_,_/
/_/                         /___/
`

var version = "v0.1.0"

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tprojectdiscovery.io\n\n")
}
