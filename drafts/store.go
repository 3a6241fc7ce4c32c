// Package drafts keeps per-session sales-order drafts: one JSON blob per
// session, discarded after 24 hours. There is no schema versioning — a stale
// or unreadable draft is simply dropped.
package drafts

import (
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

const draftKeyPrefix = "SalesOrderDraft:"

// MaxAge is how long a draft stays usable.
const MaxAge = 24 * time.Hour

type Draft struct {
	SessionId string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
	SavedAt   time.Time       `json:"saved_at"`
}

// IsStale reports whether the draft is past its 24h window at the given time.
func (d Draft) IsStale(now time.Time) bool {
	return now.Sub(d.SavedAt) >= MaxAge
}

func key(sessionId string) string {
	return draftKeyPrefix + sessionId
}

func Save(sessionId string, payload json.RawMessage) error {
	draft := Draft{
		SessionId: sessionId,
		Payload:   payload,
		SavedAt:   time.Now().UTC(),
	}
	return config.SetRedisObject(key(sessionId), draft, MaxAge)
}

// Get loads a draft. Stale drafts are discarded on read as well as by the
// store's expiry, so a clock-skewed store still honors the 24h contract.
func Get(sessionId string) (*Draft, bool, error) {
	var draft Draft
	exists, err := config.GetRedisObject(key(sessionId), &draft)
	if err != nil || !exists {
		return nil, false, err
	}
	if draft.IsStale(time.Now().UTC()) {
		_ = config.RemoveRedisKey(key(sessionId))
		return nil, false, nil
	}
	return &draft, true, nil
}

func Delete(sessionId string) error {
	return config.RemoveRedisKey(key(sessionId))
}
