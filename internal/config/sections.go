package config

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Path: ".praxis/praxis.db"}
}

// MemoryConfig configures conversation memory.
type MemoryConfig struct {
	// WindowSize is the number of recent exchanges kept verbatim.
	WindowSize int `yaml:"window_size"`
	// SummaryThreshold is the approximate token count of history that
	// triggers summarization of older turns.
	SummaryThreshold int `yaml:"summary_threshold"`
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{WindowSize: 10, SummaryThreshold: 2000}
}

// RAGConfig configures the retrieval pipeline.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	RerankTopK   int `yaml:"rerank_top_k"`
	// HybridKeywordWeight blends keyword scores into vector scores (0..1).
	HybridKeywordWeight float64 `yaml:"hybrid_keyword_weight"`
}

func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		TopK:                5,
		RerankTopK:          3,
		HybridKeywordWeight: 0.3,
	}
}

// AgentConfig configures agent execution.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	// Workspace is the directory file tools are rooted in.
	Workspace string `yaml:"workspace"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{MaxIterations: 10, Workspace: "."}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string              `yaml:"addr"`
	APIKeys map[string]APIKey   `yaml:"api_keys"` // key -> metadata
	Limits  map[string]TierRate `yaml:"limits"`   // tier -> rate
}

// APIKey describes one configured API key.
type APIKey struct {
	User string `yaml:"user"`
	Tier string `yaml:"tier"`
}

// TierRate is a request budget for a rate limit window.
type TierRate struct {
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr: ":8080",
		Limits: map[string]TierRate{
			"free":    {Requests: 10, Window: "1m"},
			"premium": {Requests: 100, Window: "1m"},
		},
	}
}

// MCPConfig configures MCP server connections and the built-in server.
type MCPConfig struct {
	Servers map[string]MCPServer `yaml:"servers"`
}

// MCPServer describes one MCP server to connect to.
type MCPServer struct {
	Protocol string   `yaml:"protocol"` // stdio, sse
	BaseURL  string   `yaml:"base_url"` // for sse
	Command  string   `yaml:"command"`  // for stdio
	Args     []string `yaml:"args"`
	Enabled  bool     `yaml:"enabled"`
}

func DefaultMCPConfig() MCPConfig {
	return MCPConfig{Servers: map[string]MCPServer{}}
}
