package idgen

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeGenerator_NextInvoiceNumber(t *testing.T) {
	g, err := NewSnowflakeGenerator(7)
	require.NoError(t, err)

	first := g.NextInvoiceNumber()
	second := g.NextInvoiceNumber()

	require.True(t, strings.HasPrefix(first, InvoicePrefix))
	a, err := strconv.ParseInt(strings.TrimPrefix(first, InvoicePrefix), 10, 64)
	require.NoError(t, err)
	b, err := strconv.ParseInt(strings.TrimPrefix(second, InvoicePrefix), 10, 64)
	require.NoError(t, err)
	assert.Less(t, a, b)
	assert.Equal(t, int64(7), snowflake.ID(a).Node())
}

func TestSnowflakeGenerator_UniqueUnderConcurrency(t *testing.T) {
	g, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				n := g.NextInvoiceNumber()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestNewSnowflakeGenerator_RejectsBadNode(t *testing.T) {
	_, err := NewSnowflakeGenerator(4096)
	assert.Error(t, err)
}
