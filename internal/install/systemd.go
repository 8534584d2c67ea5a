package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"servus/internal/global"
	"strings"
)

// Unit file text with paths filled in
func renderUnit() (unitFile []byte, err error) {
	template, err := installationFiles.ReadFile("static-files/servus.service")
	if err != nil {
		err = fmt.Errorf("unable to retrieve unit file from embedded filesystem: %w", err)
		return
	}

	newUnitFile := strings.Replace(string(template), "$executableFilePath", global.DefaultBinaryPath, 1)
	newUnitFile = strings.Replace(newUnitFile, "$configFilePath", global.DefaultConfigPath, 1)
	unitFile = []byte(newUnitFile)
	return
}

func installService() (err error) {
	unitName := filepath.Base(global.ServiceUnitPath)

	unitFile, err := renderUnit()
	if err != nil {
		return
	}

	err = os.WriteFile(global.ServiceUnitPath, unitFile, 0644)
	if err != nil {
		return
	}

	// Reload for new unit file
	output, err := exec.Command("systemctl", "daemon-reload").CombinedOutput()
	if err != nil {
		err = fmt.Errorf("failed to reload systemd units: %w: %s", err, string(output))
		return
	}

	// Disabled status is exit code 1
	output, err = exec.Command("systemctl", "is-enabled", unitName).CombinedOutput()
	if err != nil {
		if !strings.Contains(string(output), "disabled") {
			err = fmt.Errorf("failed to check systemd service enablement status: %w: %s", err, string(output))
			return
		}
		err = nil
	}
	enableStatus := strings.TrimSpace(string(output))

	if strings.ToLower(enableStatus) != "enabled" {
		output, err = exec.Command("systemctl", "enable", unitName).CombinedOutput()
		if err != nil {
			err = fmt.Errorf("failed to enable systemd service: %w: %s", err, string(output))
			return
		}
	}

	fmt.Printf("Successfully installed Systemd service\n")
	fmt.Printf("  IMPORTANT: set the primus address in '%s' and start the service with 'systemctl start %s'\n",
		global.DefaultConfigPath, unitName)
	return
}

func uninstallService() (err error) {
	unitName := filepath.Base(global.ServiceUnitPath)

	// Disabled/not-found status is exit code != 0
	output, err := exec.Command("systemctl", "is-enabled", unitName).CombinedOutput()
	if err != nil {
		if !strings.Contains(string(output), "not-found") && !strings.Contains(string(output), "disabled") {
			err = fmt.Errorf("failed to check systemd service enablement status: %w: %s", err, string(output))
			return
		}
		err = nil
	}

	if strings.ToLower(strings.TrimSpace(string(output))) == "enabled" {
		output, err = exec.Command("systemctl", "disable", "--now", unitName).CombinedOutput()
		if err != nil {
			err = fmt.Errorf("failed to disable systemd service: %w: %s", err, string(output))
			return
		}
	}

	err = removeIfPresent(global.ServiceUnitPath)
	if err != nil {
		return
	}

	// Reload for removed unit file
	output, err = exec.Command("systemctl", "daemon-reload").CombinedOutput()
	if err != nil {
		err = fmt.Errorf("failed to reload systemd units: %w: %s", err, string(output))
		return
	}

	fmt.Printf("Successfully uninstalled systemd service\n")
	return
}
