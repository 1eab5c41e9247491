package instance

import "os"

// GetID returns the process instance identifier used in log fields, falling
// back through the common platform variables to a local default.
func GetID() string {
	for _, key := range []string{"GROCERDASH_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
