package hostcfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("serial:\n  port: /dev/ttyUSB0\n"))
	require.NoError(t, err)
	require.Equal(t, 9600, c.Serial.Baud)
	require.Equal(t, 500*time.Millisecond, c.Serial.Timeout())
	require.Equal(t, "N", c.Serial.Parity)
	require.Equal(t, "wstl18", c.MQTT.Topic)
	require.Equal(t, 6*time.Second, c.SampleInterval())
	require.Empty(t, c.MQTT.Broker)
}

func TestParse_Full(t *testing.T) {
	doc := `
serial:
  port: COM3
  baud: 115200
  timeout_ms: 200
  parity: E
mqtt:
  broker: tcp://localhost:1883
  topic: field/logger1
  client_id: bench
  qos: 1
sample_interval_s: 60
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "COM3", c.Serial.Port)
	require.Equal(t, 115200, c.Serial.Baud)
	require.Equal(t, "E", c.Serial.Parity)
	require.Equal(t, "tcp://localhost:1883", c.MQTT.Broker)
	require.Equal(t, byte(1), c.MQTT.QoS)
	require.Equal(t, time.Minute, c.SampleInterval())
}

func TestParse_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"no port":    "serial:\n  baud: 9600\n",
		"bad parity": "serial:\n  port: x\n  parity: M\n",
		"bad qos":    "serial:\n  port: x\nmqtt:\n  qos: 3\n",
		"bad yaml":   "serial: [",
	} {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wstlctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial:\n  port: /dev/ttyACM0\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", c.Serial.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
