package console

import (
	"strconv"
	"strings"
)

const (
	minPort = 1
	maxPort = 65535
)

// NegotiatePort asks whether to use defaultPort and, if not, for an explicit
// port. Invalid answers repeat the current question. An unreadable input is
// returned as an error and ends the negotiation.
func (c *Console) NegotiatePort(defaultPort int) (int, error) {
	for {
		answer, err := c.ask("use default port " + strconv.Itoa(defaultPort) + "? y/n: ")
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return defaultPort, nil
		case "n", "no":
			return c.askPort()
		default:
			c.Printf("please answer y or n\n")
		}
	}
}

func (c *Console) askPort() (int, error) {
	for {
		answer, err := c.ask("port (1-65535): ")
		if err != nil {
			return 0, err
		}
		port, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			c.Printf("port must be a number\n")
			continue
		}
		if port < minPort || port > maxPort {
			c.Printf("port must be between %d and %d\n", minPort, maxPort)
			continue
		}
		c.log.Debug("port chosen")
		return port, nil
	}
}
