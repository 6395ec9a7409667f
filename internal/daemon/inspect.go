package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// inspectEntry is the Env an operator-supplied expr predicate evaluates
// against: one key/value pair from a dumped container.
type inspectEntry struct {
	Key   string
	Value string
}

// InspectRouter returns a gorilla/mux router exposing a single operator
// inspection endpoint, GET /inspect/{kind}, rate-limited by
// cfg.RateLimitPerSecond. An optional ?filter= query parameter is compiled
// once per request with github.com/expr-lang/expr and evaluated against
// every entry, letting an operator filter a container dump by an expression
// string (e.g. "len(Value) > 3") without the daemon needing bespoke query
// syntax.
func (d *Daemon) InspectRouter(ratePerSecond float64) *mux.Router {
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/inspect/{kind}", d.handleInspect).Methods(http.MethodGet)
	return r
}

func (d *Daemon) handleInspect(w http.ResponseWriter, req *http.Request) {
	kind := Kind(mux.Vars(req)["kind"])
	entries, err := d.dumpEntries(kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if filterExpr := req.URL.Query().Get("filter"); filterExpr != "" {
		program, err := expr.Compile(filterExpr, expr.Env(inspectEntry{}), expr.AsBool())
		if err != nil {
			http.Error(w, fmt.Sprintf("compiling filter: %v", err), http.StatusBadRequest)
			return
		}
		entries = filterEntries(entries, program)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		cclog.Errorf("inspect: encoding response: %v", err)
	}
}

func filterEntries(entries []inspectEntry, program *vm.Program) []inspectEntry {
	out := entries[:0]
	for _, e := range entries {
		result, err := expr.Run(program, e)
		if err != nil {
			cclog.Warnf("inspect: evaluating filter on %+v: %v", e, err)
			continue
		}
		if keep, _ := result.(bool); keep {
			out = append(out, e)
		}
	}
	return out
}

// dumpEntries walks kind's container and returns every key/value pair as
// strings, suitable for JSON encoding and expr filtering regardless of the
// container's concrete key/value types.
func (d *Daemon) dumpEntries(kind Kind) ([]inspectEntry, error) {
	var entries []inspectEntry
	switch kind {
	case KindRBTree:
		d.rbMu.RLock()
		defer d.rbMu.RUnlock()
		cur := d.rb.Iter()
		for {
			k, v, ok := cur.Next()
			if !ok {
				break
			}
			entries = append(entries, inspectEntry{Key: fmt.Sprint(k), Value: *v})
		}
	case KindAVLTree:
		d.avlMu.RLock()
		defer d.avlMu.RUnlock()
		cur := d.avl.Iter()
		for {
			k, v, ok := cur.Next()
			if !ok {
				break
			}
			entries = append(entries, inspectEntry{Key: fmt.Sprint(k), Value: *v})
		}
	case KindHashTable:
		d.htMu.RLock()
		defer d.htMu.RUnlock()
		cur := d.ht.Iter()
		for {
			k, v, ok := cur.Next()
			if !ok {
				break
			}
			entries = append(entries, inspectEntry{Key: fmt.Sprint(k), Value: *v})
		}
	case KindHashSet:
		d.hsMu.RLock()
		defer d.hsMu.RUnlock()
		cur := d.hs.Iter()
		for {
			e, ok := cur.Next()
			if !ok {
				break
			}
			entries = append(entries, inspectEntry{Key: fmt.Sprint(e), Value: ""})
		}
	case KindCritbit:
		d.cbMu.RLock()
		defer d.cbMu.RUnlock()
		cur := d.cb.Iter()
		for {
			k, v, ok := cur.Next()
			if !ok {
				break
			}
			entries = append(entries, inspectEntry{Key: fmt.Sprintf("%016x%016x", k.Hi, k.Lo), Value: *v})
		}
	default:
		return nil, fmt.Errorf("inspect: unknown or non-iterable container kind %q", kind)
	}
	return entries, nil
}
