package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeConfig_WiresIntoPackageConfigs(t *testing.T) {
	cfg := Default()
	cfg.Queue.MaxDepth = 16
	cfg.ProcBus.DefaultRequestTimeout = 3 * time.Second

	assert.Equal(t, 16, cfg.Queue.QueueConfig().MaxDepth)
	assert.Equal(t, "process-thread", cfg.Process.ProcessConfig().Source)
	assert.Equal(t, "message-bus", cfg.Bus.BusConfig().Source)
	assert.Equal(t, 3*time.Second, cfg.ProcBus.ProcBusConfig().DefaultRequestTimeout)
	assert.Equal(t, "timer-thread", cfg.Timer.TimerConfig().Source)
}
