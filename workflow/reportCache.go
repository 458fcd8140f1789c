package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/utils"
	"github.com/sirupsen/logrus"
)

type cachedCamp struct {
	Camp      string `json:"camp"`
	FileName  string `json:"file_name"`
	Data      []byte `json:"data"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// reportCacheKey digests both uploads together with the camp group and
// keywords, so a configuration change never serves stale reports.
func reportCacheKey(req Request) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	h.Write(req.JobFile)
	h.Write([]byte{0})
	h.Write(req.AssetFile)
	h.Write([]byte{0})
	write(req.Group.Name)
	for _, c := range req.Group.Camps {
		write(c.Name, strings.Join(c.Prefixes, "\x1f"))
	}
	write(req.Keywords...)
	return "ReportCache:" + hex.EncodeToString(h.Sum(nil))
}

func cachedOutputs(ctx context.Context, req Request) ([]CampOutput, bool) {
	if !config.ReportCacheEnabled() {
		return nil, false
	}
	var camps []cachedCamp
	ok, err := config.GetRedisObject(ctx, reportCacheKey(req), &camps)
	if err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cachedOutputs", "GetRedisObject", nil, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	outputs := make([]CampOutput, 0, len(camps))
	for _, c := range camps {
		out := CampOutput{
			Camp:      c.Camp,
			FileName:  c.FileName,
			Data:      c.Data,
			Matched:   c.Matched,
			Unmatched: c.Unmatched,
			Total:     c.Total,
		}
		if c.Error != "" {
			out.Err = errors.New(c.Error)
		}
		outputs = append(outputs, out)
	}
	return outputs, true
}

func storeOutputs(ctx context.Context, req Request, outputs []CampOutput) {
	if !config.ReportCacheEnabled() {
		return
	}
	camps := make([]cachedCamp, 0, len(outputs))
	for _, o := range outputs {
		c := cachedCamp{
			Camp:      o.Camp,
			FileName:  o.FileName,
			Data:      o.Data,
			Matched:   o.Matched,
			Unmatched: o.Unmatched,
			Total:     o.Total,
		}
		if o.Err != nil {
			c.Error = o.Err.Error()
		}
		camps = append(camps, c)
	}
	if err := config.SetRedisObject(ctx, reportCacheKey(req), camps, config.ReportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "storeOutputs", "SetRedisObject", nil, err)
	}
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < config.ReportSlowMs() {
		return
	}
	sid, _ := utils.GetSessionIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"session_id":     sid,
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}
