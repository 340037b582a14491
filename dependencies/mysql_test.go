package dependencies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appConfig "github.com/Xushengqwer/gallery_service/config"
)

func TestWritePool(t *testing.T) {
	shared := appConfig.MySQLConfig{
		SharedMaxIdleConns:    10,
		SharedMaxOpenConns:    50,
		SharedConnMaxLifetime: 3600,
	}
	p := writePool(shared)
	assert.Equal(t, poolSettings{maxIdle: 10, maxOpen: 50, maxLifetime: time.Hour}, p)

	idle, life := 2, 60
	overridden := shared
	overridden.Write = appConfig.SourceConfig{MaxIdleConns: &idle, ConnMaxLifetime: &life}
	p = writePool(overridden)
	assert.Equal(t, 2, p.maxIdle)
	assert.Equal(t, 50, p.maxOpen)
	assert.Equal(t, time.Minute, p.maxLifetime)
}
