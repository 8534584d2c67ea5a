// Handles installation, removal and template configuration of the gateway
package install

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Read in installation static files at compile time
//
//go:embed static-files/*
var installationFiles embed.FS

// Full installation (idempotent)
func Run() {
	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Installation must be run as root\n")
		os.Exit(1)
	}

	// Move binary (self) into place
	err := installBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error installing binary: %v\n", err)
		os.Exit(1)
	}

	// Create template config
	err = installConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with template config: %v\n", err)
		os.Exit(1)
	}

	// Create systemd service
	err = installService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Installation completed successfully\n")
}

// Full uninstall
func Remove() {
	if !confirm("Are you SURE you want to uninstall? (this will remove the configuration file) (yes/no): ") {
		fmt.Printf("Aborting uninstall\n")
		return
	}

	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Uninstall must be run as root\n")
		os.Exit(1)
	}

	err := uninstallService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
	}

	err = uninstallConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing configuration: %v\n", err)
	}

	err = uninstallBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing binary: %v\n", err)
	}

	fmt.Printf("Uninstall completed\n")
}

// Asks for a literal "yes". Without a terminal nobody can answer, so the action proceeds.
func confirm(question string) (confirmed bool) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		confirmed = true
		return
	}

	fmt.Print(question)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	confirmed = strings.ToLower(strings.TrimSpace(input)) == "yes"
	return
}
