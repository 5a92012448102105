package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	ErrDuplicatePrefix = errors.New("duplicate route prefix")
	ErrInvalidPrefix   = errors.New("invalid route prefix")
	ErrSealed          = errors.New("route table is already built")
)

type route struct {
	method  string
	pattern string
	handler http.Handler
}

type mount struct {
	prefix  string
	handler http.Handler
}

// Table сопоставляет префикс пути с под-приложением.
// После Build таблица больше не меняется.
type Table struct {
	mu     sync.Mutex
	mounts []mount
	seen   map[string]struct{}
	routes []route
	sealed bool
}

func NewTable() *Table {
	return &Table{seen: make(map[string]struct{})}
}

func normalizePrefix(prefix string) (string, error) {
	if !strings.HasPrefix(prefix, "/") || strings.ContainsAny(prefix, "*{}") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return "", fmt.Errorf("%w: the root path is reserved for top-level routes", ErrInvalidPrefix)
	}
	return prefix, nil
}

// Mount регистрирует под-приложение, повтор префикса считается ошибкой конфигурации
func (t *Table) Mount(prefix string, h http.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return ErrSealed
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidPrefix, prefix)
	}
	p, err := normalizePrefix(prefix)
	if err != nil {
		return err
	}
	if _, dup := t.seen[p]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePrefix, p)
	}
	t.seen[p] = struct{}{}
	t.mounts = append(t.mounts, mount{prefix: p, handler: h})
	return nil
}

// Get регистрирует маршрут верхнего уровня, например "/"
func (t *Table) Get(pattern string, h http.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return ErrSealed
	}
	t.routes = append(t.routes, route{method: http.MethodGet, pattern: pattern, handler: h})
	return nil
}

// Prefixes префиксы в порядке регистрации
func (t *Table) Prefixes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.mounts))
	for i, m := range t.mounts {
		out[i] = m.prefix
	}
	return out
}

// Build запечатывает таблицу и собирает chi роутер.
// Выбирается самый длинный совпавший префикс.
// Под-приложения сами решают, отвечать ли на HEAD.
func (t *Table) Build(notFound, methodNotAllowed http.HandlerFunc) (h http.Handler, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return nil, ErrSealed
	}

	// chi паникует на конфликте маршрутов, превращаем это в ошибку старта
	defer func() {
		if rvr := recover(); rvr != nil {
			h, err = nil, fmt.Errorf("%w: %v", ErrDuplicatePrefix, rvr)
		}
	}()

	r := chi.NewRouter()
	// HEAD обслуживается GET обработчиком
	r.Use(middleware.GetHead)
	if notFound != nil {
		r.NotFound(notFound)
	}
	if methodNotAllowed != nil {
		r.MethodNotAllowed(methodNotAllowed)
	}
	for _, rt := range t.routes {
		r.Method(rt.method, rt.pattern, rt.handler)
	}
	for _, m := range t.mounts {
		r.Mount(m.prefix, m.handler)
	}

	t.sealed = true
	return r, nil
}
