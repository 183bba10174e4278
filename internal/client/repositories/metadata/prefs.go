package metadata

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trafficguard/internal/common"
)

var (
	valueTrue  = []byte("true")
	valueFalse = []byte("false")
)

// Prefs is a Repository view restricted to one preference scope
// (e.g. common.PrefsScope). Booleans are stored as "true"/"false".
type Prefs struct {
	repo  Repository
	scope string
}

func NewPrefs(repo Repository, scope string) *Prefs {
	return &Prefs{repo: repo, scope: scope}
}

// Bool returns the stored flag; an absent key reads as false.
func (p *Prefs) Bool(ctx context.Context, key string) (bool, error) {
	v, err := p.repo.Get(ctx, common.PrefKey(p.scope, key))
	if err != nil {
		return false, err
	}
	switch string(v) {
	case "", string(valueFalse):
		return false, nil
	case string(valueTrue):
		return true, nil
	default:
		return false, fmt.Errorf("preference %s: unexpected value %q", key, v)
	}
}

func (p *Prefs) SetBool(ctx context.Context, key string, v bool) error {
	val := valueFalse
	if v {
		val = valueTrue
	}
	return p.repo.Set(ctx, common.PrefKey(p.scope, key), val)
}

// All returns the scope's preferences keyed without the scope prefix.
func (p *Prefs) All(ctx context.Context) (map[string][]byte, error) {
	prefix := common.PrefKey(p.scope, "")
	m, err := p.repo.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k[len(prefix):]] = v
	}
	return out, nil
}
