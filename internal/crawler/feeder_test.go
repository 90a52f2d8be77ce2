package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldStop(t *testing.T) {
	tests := []struct {
		name           string
		emptyChecks    int
		pagesProcessed int64
		maxPages       int64
		ctxErr         error
		inflight       int64
		want           bool
	}{
		{"below empty threshold", maxEmptyChecks - 1, 100, 100, context.Canceled, 0, false},
		{"empty and idle", maxEmptyChecks, 10, 100, nil, 0, true},
		{"empty but work in flight", maxEmptyChecks, 10, 100, nil, 3, false},
		{"page cap reached with work in flight", maxEmptyChecks, 100, 100, nil, 3, true},
		{"cancelled with work in flight", maxEmptyChecks, 10, 100, context.Canceled, 3, true},
		{"well past empty threshold, still busy", maxEmptyChecks * 2, 10, 100, nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldStop(tt.emptyChecks, tt.pagesProcessed, tt.maxPages, tt.ctxErr, tt.inflight)
			assert.Equal(t, tt.want, got)
		})
	}
}
