package retailopsserver

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/retail-ops/internal/platform/changefeed"
)

// HeartbeatInterval keeps idle change streams open through proxies.
const HeartbeatInterval = 25 * time.Second

// ChangesAPI streams change-feed notifications to live dashboard views.
type ChangesAPI struct {
	feed changefeed.Subscriber
}

func NewChangesAPI(feed changefeed.Subscriber) ChangesAPI {
	return ChangesAPI{feed: feed}
}

// Get /v1/changes?collection=&parentId=
// Each change is one "change" event; consumers re-read the document it names.
func (api *ChangesAPI) StreamChanges(c *gin.Context) {
	var filter changefeed.Filter
	if !queryParam(c, "collection", false, &filter.Collection) || !queryParam(c, "parentId", false, &filter.ParentID) {
		return
	}
	if api.feed == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	ctx := c.Request.Context()
	changes, unsubscribe, err := api.feed.Subscribe(ctx, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("change", change)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
