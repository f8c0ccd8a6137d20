package pathidx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	elastigo "github.com/mattbaird/elastigo/lib"
	log "github.com/sirupsen/logrus"

	"github.com/raintank/corehouse/schema"
)

// IndexClient is the thin capability surface the path store pipeline
// needs from a search index backend. Per REDESIGN FLAGS §9, this
// replaces the teacher's dynamic dispatch between a native and a REST
// index client with one client: IndexClient is a concrete struct over
// elastigo's REST connection, there is no second wire flavor, and
// PathStore only ever talks to this.
type IndexClient struct {
	conn        *elastigo.Conn
	bulkIndexer *elastigo.BulkIndexer
	index       string
	docType     string
}

// NewIndexClient dials hosts and prepares a bulk indexer for the given
// index, with the document type fixed to "path". It does not create the
// index itself; call
// EnsureIndex for that.
func NewIndexClient(hosts []string, user, pass, index string, maxConns, maxBufferDocs int, bufferDelayMax time.Duration) *IndexClient {
	conn := elastigo.NewConn()
	conn.SetHosts(hosts)
	if user != "" {
		conn.Username = user
	}
	if pass != "" {
		conn.Password = pass
	}

	c := &IndexClient{conn: conn, index: index, docType: "path"}
	c.bulkIndexer = conn.NewBulkIndexer(maxConns)
	c.bulkIndexer.RetryForSeconds = 0
	c.bulkIndexer.BulkMaxDocs = maxBufferDocs
	c.bulkIndexer.BulkMaxBuffer = 1024 * maxBufferDocs
	c.bulkIndexer.BufferDelayMax = bufferDelayMax
	c.bulkIndexer.Sender = c.bulkSend
	return c
}

// EnsureIndex creates the index with its mapping if it doesn't already
// exist (§6 "Persisted layout, search index").
func (c *IndexClient) EnsureIndex() error {
	exists, err := c.conn.ExistsIndex(c.index, "", nil)
	if err != nil && err.Error() != "record not found" {
		return err
	}
	if exists {
		return nil
	}
	log.Infof("pathidx: creating index %s", c.index)
	_, err = c.conn.DoCommand("PUT", fmt.Sprintf("/%s", c.index), nil, mapping)
	if err != nil {
		return err
	}
	time.Sleep(time.Second)
	return nil
}

// Start/Stop manage the bulk indexer's background flush loop.
func (c *IndexClient) Start() { c.bulkIndexer.Start() }
func (c *IndexClient) Stop()  { c.bulkIndexer.Stop() }

// MultiGet checks which of the given document ids already exist in the
// index, returning the subset that does (Stage B, §4.4).
func (c *IndexClient) MultiGet(ids []string) (map[string]bool, error) {
	exist := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return exist, nil
	}
	body := map[string][]map[string]string{
		"docs": make([]map[string]string, 0, len(ids)),
	}
	for _, id := range ids {
		body["docs"] = append(body["docs"], map[string]string{"_id": id, "_type": c.docType})
	}
	var resp struct {
		Docs []struct {
			ID     string `json:"_id"`
			Found  bool   `json:"found"`
			Exists bool   `json:"exists"`
		} `json:"docs"`
	}
	out, err := c.conn.DoCommand("GET", fmt.Sprintf("/%s/_mget", c.index), nil, body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, err
	}
	for _, d := range resp.Docs {
		if d.Found || d.Exists {
			exist[d.ID] = true
		}
	}
	return exist, nil
}

// BulkUpsert queues each document for the bulk indexer (Stage C, §4.4).
// The indexer itself batches/flushes on its own schedule; failures are
// surfaced asynchronously via bulkSend/processResponse.
func (c *IndexClient) BulkUpsert(docs []schema.PathDoc) error {
	for _, d := range docs {
		if err := c.bulkIndexer.Index(c.index, c.docType, d.ID(), "", "", nil, d); err != nil {
			return err
		}
	}
	return nil
}

// Put writes a single document synchronously, used by the degenerate
// Register path (§4.4 "Register (single-path synchronous API)").
func (c *IndexClient) Put(d schema.PathDoc) error {
	_, err := c.conn.Index(c.index, c.docType, d.ID(), nil, d)
	return err
}

// Exists reports whether a single document id is present, used by
// Register.
func (c *IndexClient) Exists(id string) (bool, error) {
	exists, err := c.conn.Exists(c.index, c.docType, id, nil)
	if err != nil {
		if strings.Contains(err.Error(), "record not found") {
			return false, nil
		}
		return false, err
	}
	return exists.Exists, nil
}

func (c *IndexClient) bulkSend(buf *bytes.Buffer) error {
	body, err := c.conn.DoCommand("POST", fmt.Sprintf("/_bulk?refresh=%t", c.bulkIndexer.Refresh), nil, buf)
	if err != nil {
		return err
	}
	return c.processResponse(body)
}

type bulkResponse struct {
	Took   int64                    `json:"took"`
	Errors bool                     `json:"errors"`
	Items  []map[string]interface{} `json:"items"`
}

func (c *IndexClient) processResponse(body []byte) error {
	var resp bulkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}
	if !resp.Errors {
		return nil
	}
	for _, item := range resp.Items {
		for _, v := range item {
			m, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if errMsg, ok := m["error"]; ok {
				log.Warnf("pathidx: bulk item %v failed: %v", m["_id"], errMsg)
			}
		}
	}
	return fmt.Errorf("bulk upsert had partial errors")
}

// Search runs a scrolled query against the index (C5, §4.5). The
// caller provides a decoded query body; results are streamed back via
// the returned iterator until the scroll is exhausted.
func (c *IndexClient) Search(query map[string]interface{}) (*ScrollIter, error) {
	out, err := c.conn.Search(c.index, c.docType, map[string]interface{}{"scroll": "1m", "size": 1000}, query)
	if err != nil {
		return nil, err
	}
	return &ScrollIter{conn: c.conn, first: &out}, nil
}

// ScrollIter walks a scrolled search result page by page.
type ScrollIter struct {
	conn     *elastigo.Conn
	first    *elastigo.SearchResult
	scrollID string
	done     bool

	// Total is the query's total hit count, valid after the first
	// call to Next (§4.5, used to enforce TooManyPaths).
	Total int
}

// Next returns the next page of hits, or (nil, false) once exhausted.
func (s *ScrollIter) Next() ([]schema.PathDoc, bool, error) {
	if s.done {
		return nil, false, nil
	}
	var out elastigo.SearchResult
	var err error
	if s.first != nil {
		out = *s.first
		s.first = nil
		s.Total = int(out.Hits.Total)
	} else {
		out, err = s.conn.Scroll(map[string]interface{}{"scroll": "1m"}, s.scrollID)
		if err != nil {
			return nil, false, err
		}
	}
	s.scrollID = out.ScrollId
	if out.Hits.Len() == 0 {
		s.done = true
		return nil, false, nil
	}
	docs := make([]schema.PathDoc, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		var d schema.PathDoc
		if err := json.Unmarshal(*h.Source, &d); err != nil {
			log.Warnf("pathidx: bad document in index: %v", err)
			continue
		}
		docs = append(docs, d)
	}
	return docs, true, nil
}
