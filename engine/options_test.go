package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaultsInboundQueueSizeUnsetUsesDefault(t *testing.T) {
	var o Options
	o.setDefaults()

	assert.Equal(t, DefaultInboundQueueSize, o.InboundQueueSize)
}

func TestSetDefaultsInboundQueueSizeNegativeMeansDisabled(t *testing.T) {
	o := Options{InboundQueueSize: -1}
	o.setDefaults()

	assert.Equal(t, 0, o.InboundQueueSize)
}

func TestSetDefaultsInboundQueueSizePositiveIsPreserved(t *testing.T) {
	o := Options{InboundQueueSize: 7}
	o.setDefaults()

	assert.Equal(t, 7, o.InboundQueueSize)
}

func TestSetDefaultsOutboundQueueSizeUnsetUsesDefault(t *testing.T) {
	var o Options
	o.setDefaults()

	assert.Equal(t, 512, o.OutboundQueueSize)
}
