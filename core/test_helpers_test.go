package core

import (
	"context"
	"sync"
	"testing"
)

var (
	testCollection = AccountIDFromByte(0xC0)
	testCatalog    = AccountIDFromByte(0xCA)
	testOwner      = AccountIDFromByte(0x01)
	testCaller     = AccountIDFromByte(0x02)
	testSelf       = AccountIDFromByte(0x5E)
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, message string, eventType string) bool {
	for _, item := range items {
		if item.level != level || item.msg != message {
			continue
		}
		if eventType == "" || item.fields["event_type"] == eventType {
			return true
		}
	}
	return false
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	collection   *MemoryCollectionRegistry
	states       *MemoryStateStore
	receipts     *MemoryReceiptStore
	metrics      *captureMetricsRecorder
	logger       *captureLogger
}

func newOrchestratorFixture(t *testing.T, cfg Config, totalAssets uint32, opts ...Option) orchestratorFixture {
	t.Helper()
	collection := NewMemoryCollectionRegistry(testSelf, totalAssets)
	dialer := StaticDialer{
		Collections: map[AccountID]CollectionRegistry{testCollection: collection},
		Catalogs:    map[AccountID]CatalogRegistry{testCatalog: MemoryCatalogRegistry{Parts: 7}},
	}
	states := NewMemoryStateStore()
	receipts := NewMemoryReceiptStore()
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()

	if cfg.CollectionAddress == "" {
		cfg.CollectionAddress = testCollection.String()
	}
	if cfg.CatalogAddress == "" {
		cfg.CatalogAddress = testCatalog.String()
	}
	if cfg.OwnerAddress == "" {
		cfg.OwnerAddress = testOwner.String()
	}

	base := []Option{
		WithRegistryDialer(dialer),
		WithStateStore(states),
		WithReceiptStore(receipts),
		WithBlockClock(FixedBlockClock(1_700_000_000_000)),
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	}
	orchestrator, err := NewOrchestrator(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return orchestratorFixture{
		orchestrator: orchestrator,
		collection:   collection,
		states:       states,
		receipts:     receipts,
		metrics:      metrics,
		logger:       logger,
	}
}

func callSelectors(calls []RegistryCall) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, call.Selector)
	}
	return out
}
