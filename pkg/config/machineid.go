package config

import (
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// MachineID retrieves an application specific ID of the machine.
func MachineID() (string, error) {
	return machineid.ProtectedID("linkstack")
}

// ClientID builds an MQTT client id unique to the machine and process. A
// random id is used where the machine id is unavailable, e.g. containers.
func ClientID() string {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("config: machine id: %v", err)
		id = uuid.NewString()
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("linkstack-%s-%d", id, os.Getpid())
}
