// Package featureflags evaluates the optional surfaces switched by FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flag names a switchable feature.
type Flag string

const (
	// RealtimeFeed gates the /api/v1/ws article event feed.
	RealtimeFeed Flag = "realtime_feed"
	// ImagePreviews gates WebP preview generation for uploaded images.
	ImagePreviews Flag = "image_previews"
)

// Defaults are applied before FEATURE_FLAGS overrides.
var Defaults = map[Flag]string{
	RealtimeFeed:  "on",
	ImagePreviews: "on",
}

// Manager evaluates flags defined as a comma-separated key=value list,
// e.g. "realtime_feed=on,image_previews=25%".
type Manager struct {
	flags map[Flag]string
}

// NewManager parses raw on top of Defaults. Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[Flag]string, len(Defaults))
	for k, v := range Defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[Flag(key)] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID.
// Values are on/true/1, off/false/0 or N% for a deterministic per-user rollout.
func (m *Manager) Enabled(name Flag, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[Flag(normalize(string(name)))]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil, pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// EnabledGlobally reports whether name is on without a user, so only on/100% count.
func (m *Manager) EnabledGlobally(name Flag) bool {
	return m.Enabled(name, 0)
}

// EnabledForAny reports whether name is on for at least some users.
func (m *Manager) EnabledForAny(name Flag) bool {
	if m == nil {
		return false
	}
	if m.EnabledGlobally(name) {
		return true
	}
	value := m.flags[Flag(normalize(string(name)))]
	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	return err == nil && pct > 0
}

// Names lists configured flags in sorted order.
func (m *Manager) Names() []Flag {
	names := make([]Flag, 0, len(m.flags))
	for k := range m.flags {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[string(k)] = v
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[string(name)] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name Flag, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(string(name)) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
