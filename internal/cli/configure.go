package cli

import (
	"flag"
	"fmt"
	"os"
	"servus/internal/global"
	"servus/internal/install"
)

// Setup/installation options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var newSeed bool
	var newConf bool
	var installService bool
	var uninstallService bool
	var templateConfPath string

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.StringVar(&templateConfPath, "c", "", "Path to template config file")
	commandFlags.StringVar(&templateConfPath, "config", "", "Path to template config file")
	commandFlags.BoolVar(&newSeed, "create-seed", false, "Create new authenticator derivation seed (prints to stdout)")
	commandFlags.BoolVar(&newConf, "config-template", false, "Create new template config (using config argument, prompts for the authenticator)")
	commandFlags.BoolVar(&installService, "install", false, "Install/Upgrade the gateway service")
	commandFlags.BoolVar(&uninstallService, "uninstall", false, "Remove the gateway service")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args)

	var err error
	switch {
	case newSeed:
		var seed string
		seed, err = install.GenerateSeed()
		if err == nil {
			fmt.Printf("Authenticator seed: %s\n", seed)
		}
	case newConf:
		var authenticator string
		authenticator, err = install.PromptAuthenticator()
		if err == nil {
			err = install.CreateTemplateConfig(templateConfPath, authenticator)
		}
	case installService:
		install.Run()
	case uninstallService:
		install.Remove()
	default:
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
