package module

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Hook names fired by the core and by modules.
const (
	// HookPageAfterSave fires after a page record was written. Data: *PageSaved.
	HookPageAfterSave = "page.after_save"

	// HookDataHandlerCheckModifyAccess asks modules whether a backend user may
	// modify records of a table. Data: *AccessCheck.
	HookDataHandlerCheckModifyAccess = "datahandler.check_modify_access"

	// HookGlossaryAfterSync fires after a glossary page was synchronised with DeepL.
	HookGlossaryAfterSync = "deepl.glossary.after_sync"
)

// PageSaved is the payload of HookPageAfterSave.
type PageSaved struct {
	PageID int64
	Module string
}

// AccessCheck is the payload of HookDataHandlerCheckModifyAccess. Handlers
// set Allowed to grant access and leave it untouched otherwise.
type AccessCheck struct {
	Table   string
	Allowed bool
}

// HookFunc is a function that can be registered as a hook handler.
// It receives a context and data, and returns modified data and an error.
// If the hook returns an error, subsequent hooks are not called.
type HookFunc func(ctx context.Context, data any) (any, error)

// HookHandler wraps a HookFunc with metadata.
type HookHandler struct {
	Name     string   // Name of the handler for debugging
	Module   string   // Module that registered the handler
	Priority int      // Lower priority runs first (default: 0)
	Fn       HookFunc // The actual handler function
}

// IsModuleActiveFunc is a function that checks if a module is active.
type IsModuleActiveFunc func(moduleName string) bool

// HookRegistry manages hook registration and execution.
type HookRegistry struct {
	hooks          map[string][]HookHandler
	logger         *slog.Logger
	isModuleActive IsModuleActiveFunc
	mu             sync.RWMutex
}

// NewHookRegistry creates a new hook registry.
func NewHookRegistry(logger *slog.Logger) *HookRegistry {
	return &HookRegistry{
		hooks:          make(map[string][]HookHandler),
		logger:         logger,
		isModuleActive: func(string) bool { return true },
	}
}

// SetIsModuleActive sets the callback used to skip handlers of inactive modules.
func (h *HookRegistry) SetIsModuleActive(fn IsModuleActiveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isModuleActive = fn
}

// Register adds a hook handler. Handlers with equal priority keep
// registration order.
func (h *HookRegistry) Register(hookName string, handler HookHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Copy so that a concurrent Call keeps iterating its own snapshot.
	existing := h.hooks[hookName]
	handlers := make([]HookHandler, 0, len(existing)+1)
	handlers = append(handlers, existing...)
	handlers = append(handlers, handler)
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].Priority < handlers[j].Priority
	})
	h.hooks[hookName] = handlers

	h.logger.Debug("hook registered",
		"hook", hookName,
		"handler", handler.Name,
		"module", handler.Module,
		"priority", handler.Priority,
	)
}

// RegisterFunc registers fn with priority 0.
func (h *HookRegistry) RegisterFunc(hookName, handlerName, moduleName string, fn HookFunc) {
	h.Register(hookName, HookHandler{
		Name:   handlerName,
		Module: moduleName,
		Fn:     fn,
	})
}

// Call executes all handlers for the given hook name in priority order.
// Handlers from inactive modules are skipped. The data is passed through
// each handler; the first error stops the chain.
func (h *HookRegistry) Call(ctx context.Context, hookName string, data any) (any, error) {
	h.mu.RLock()
	handlers := h.hooks[hookName]
	isModuleActive := h.isModuleActive
	h.mu.RUnlock()

	if len(handlers) == 0 {
		return data, nil
	}

	current := data
	for _, handler := range handlers {
		if !isModuleActive(handler.Module) {
			continue
		}

		result, err := handler.Fn(ctx, current)
		if err != nil {
			h.logger.Error("hook handler error",
				"hook", hookName,
				"handler", handler.Name,
				"module", handler.Module,
				"error", err,
			)
			return nil, fmt.Errorf("hook %s handler %s: %w", hookName, handler.Name, err)
		}
		current = result
	}

	return current, nil
}

// CallNoResult executes hooks without expecting a modified result.
func (h *HookRegistry) CallNoResult(ctx context.Context, hookName string, data any) error {
	_, err := h.Call(ctx, hookName, data)
	return err
}

// CheckModifyAccess runs HookDataHandlerCheckModifyAccess for table and
// reports whether any handler granted access.
func (h *HookRegistry) CheckModifyAccess(ctx context.Context, table string) (bool, error) {
	check := &AccessCheck{Table: table}
	if err := h.CallNoResult(ctx, HookDataHandlerCheckModifyAccess, check); err != nil {
		return false, err
	}
	return check.Allowed, nil
}

// UnregisterAll removes all handlers registered by a module. The registry
// calls it when the module shuts down.
func (h *HookRegistry) UnregisterAll(moduleName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for hookName, handlers := range h.hooks {
		kept := handlers[:0:0]
		for _, handler := range handlers {
			if handler.Module != moduleName {
				kept = append(kept, handler)
			}
		}
		h.hooks[hookName] = kept
	}
}
