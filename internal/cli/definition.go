package cli

import "servus/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "Servus sensor gateway",
		FullDescription: "  Reports sensor changes and relayed fabulas to a Primus aggregator",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	root.ChildCommands["run"] = &global.CommandSet{
		CommandName:     "run",
		Description:     "Run the Gateway",
		FullDescription: "Connects to Primus, listens for fabulas and polls the configured sensor stations until stopped",
	}

	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Write template configuration, generate authenticator seeds, install or remove the service",
	}

	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
