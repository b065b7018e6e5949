package serial

import (
	"fmt"
	"sort"

	bugst "go.bug.st/serial"
)

// List returns the serial ports present on this machine, sorted by name
func List() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
