package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSearch(t *testing.T) {
	before := testutil.ToFloat64(SearchRequests.WithLabelValues("keyset"))

	RecordSearch("keyset", 50)
	RecordSearch("keyset", 3)

	assert.Equal(t, before+2, testutil.ToFloat64(SearchRequests.WithLabelValues("keyset")))
	assert.Equal(t, 1, testutil.CollectAndCount(SearchRows, "recipebox_search_rows"))
}
