// Package telemetry mirrors orchestrator events into Redis. Every data event
// is flattened into the hash <prefix>:<unit> and announced on the channel
// "<prefix>:<unit> <field>".
package telemetry

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-redis/redis/v8"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/device"
)

type Publisher struct {
	log    gobafang.Logger
	redis  *redis.Client
	prefix string
	mu     sync.Mutex
}

func New(log gobafang.Logger, client *redis.Client, prefix string) *Publisher {
	if log == nil {
		log = gobafang.NopLogger{}
	}
	return &Publisher{
		log:    log,
		redis:  client,
		prefix: prefix,
	}
}

func (p *Publisher) key(unit string) string {
	return p.prefix + ":" + unit
}

// Publish writes one event, finish events only update the batch counters
func (p *Publisher) Publish(ctx context.Context, unit string, e device.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.key(unit)
	pipe := p.redis.Pipeline()
	if e.Type == device.EventData {
		pipe.HSet(ctx, key, Flatten(string(e.Field), e.Value))
	} else {
		pipe.HSet(ctx, key,
			e.Name()+":success", e.Success,
			e.Name()+":failure", e.Failure,
		)
	}
	pipe.Publish(ctx, key+" "+e.Name(), nil)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish %s %s: %w", unit, e.Name(), err)
	}
	return nil
}

// Run publishes every event of sub until it is closed or ctx is done
func (p *Publisher) Run(ctx context.Context, unit string, sub *device.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			if err := p.Publish(ctx, unit, e); err != nil {
				p.log.Warn("%v", err)
			}
		}
	}
}

// Flatten turns a decoded value into hash fields. Struct fields become
// kebab-case names joined with ':', array elements are indexed from 1.
func Flatten(prefix string, v interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	flatten(out, prefix, reflect.ValueOf(v))
	return out
}

func flatten(out map[string]interface{}, name string, v reflect.Value) {
	if !v.IsValid() {
		out[name] = ""
		return
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			out[name] = ""
			return
		}
		flatten(out, name, v.Elem())
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			flatten(out, name+":"+kebab(t.Field(i).Name), v.Field(i))
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			flatten(out, fmt.Sprintf("%s:%d", name, i+1), v.Index(i))
		}
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			out[name] = fmt.Sprintf("%X", v.Bytes())
			return
		}
		for i := 0; i < v.Len(); i++ {
			flatten(out, fmt.Sprintf("%s:%d", name, i+1), v.Index(i))
		}
	case reflect.Bool:
		out[name] = map[bool]string{true: "on", false: "off"}[v.Bool()]
	default:
		if s, ok := v.Interface().(fmt.Stringer); ok {
			out[name] = s.String()
			return
		}
		out[name] = v.Interface()
	}
}

func kebab(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// acronyms such as RPM stay one word
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
