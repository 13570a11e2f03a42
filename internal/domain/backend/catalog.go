package backend

import (
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
)

var Redis = register(Backend{
	Name:         "redis",
	Prefix:       "REDIS",
	Environments: environment.Standard,
	Keys: []credential.KeySpec{
		{Field: "HOST", Optional: true, Description: "Redis host (default localhost)"},
		{Field: "PORT", Optional: true, Description: "Redis port (default 6379)"},
		{Field: "PASSWORD", Optional: true, Secret: true, Description: "AUTH password"},
		{Field: "DB", Optional: true, Description: "Database number (default 0)"},
		{Field: "SSL", Optional: true, Description: "Use TLS (true/false)"},
	},
	Classifier: safety.NewClassifier("redis",
		verbs("get", "keys", "type", "ttl", "exists", "hget", "hgetall", "hkeys", "hlen",
			"lrange", "llen", "smembers", "sismember", "scard", "zrange", "zscore", "zcard",
			"info", "dbsize", "ping"),
		verbs("set", "del", "expire", "hset", "hdel", "lpush", "rpush", "lpop", "rpop",
			"sadd", "srem", "zadd", "zrem", "flushdb", "flushall"),
	),
})

var sqlReadOnly = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "USE"}

var MySQL = register(Backend{
	Name:         "mysql",
	Prefix:       "MYSQL",
	Environments: environment.Standard,
	Keys: []credential.KeySpec{
		{Field: "HOST", Description: "MySQL host"},
		{Field: "PORT", Optional: true, Description: "MySQL port (default 3306)"},
		{Field: "USER", Description: "Database user"},
		{Field: "PASSWORD", Secret: true, Description: "Database password"},
		{Field: "DATABASE", Optional: true, Description: "Default schema"},
	},
	Classifier: safety.NewSQLClassifier("mysql", sqlReadOnly,
		verbs("INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "CREATE",
			"GRANT", "REVOKE", "REPLACE"),
	),
})

var Oracle = register(Backend{
	Name:         "oracle",
	Prefix:       "ORACLE",
	Environments: environment.Standard,
	Keys: []credential.KeySpec{
		{Field: "HOST", Description: "Oracle host"},
		{Field: "PORT", Optional: true, Description: "Listener port (default 1521)"},
		{Field: "USER", Description: "Database user"},
		{Field: "PASSWORD", Secret: true, Description: "Database password"},
		{Field: "SERVICE", Description: "Service name"},
	},
	Classifier: safety.NewSQLClassifier("oracle", sqlReadOnly,
		verbs("INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "CREATE",
			"GRANT", "REVOKE", "MERGE"),
	),
})

var S3 = register(Backend{
	Name:   "s3",
	Prefix: "AWS",
	Keys: []credential.KeySpec{
		{Field: "ACCESS_KEY_ID", Optional: true, Secret: true, Description: "Access key (omit to use the default chain)"},
		{Field: "SECRET_ACCESS_KEY", Optional: true, Secret: true, Description: "Secret key"},
		{Field: "SESSION_TOKEN", Optional: true, Secret: true, Description: "Session token for temporary credentials"},
		{Field: "DEFAULT_REGION", Optional: true, Description: "Region (default us-east-1)"},
		{Field: "PROFILE", Optional: true, Description: "Shared config profile"},
		{Field: "ENDPOINT_URL", Optional: true, Description: "Custom endpoint, e.g. MinIO or LocalStack"},
	},
	Classifier: safety.NewClassifier("s3",
		verbs("buckets", "ls", "get", "info"),
		verbs("put", "rm", "cp"),
	),
})

var SFTP = register(Backend{
	Name:   "sftp",
	Prefix: "SFTP",
	Keys: []credential.KeySpec{
		{Field: "HOST", Description: "SFTP host"},
		{Field: "PORT", Optional: true, Description: "SSH port (default 22)"},
		{Field: "USERNAME", Description: "Login user"},
		{Field: "PASSWORD", Optional: true, Secret: true, Description: "Password (or use KEY_FILE)"},
		{Field: "KEY_FILE", Optional: true, Description: "Private key path"},
		{Field: "KEY_PASSPHRASE", Optional: true, Secret: true, Description: "Private key passphrase"},
		{Field: "KNOWN_HOSTS", Optional: true, Description: "known_hosts path (default ~/.ssh/known_hosts)"},
	},
	Classifier: safety.NewClassifier("sftp",
		verbs("ls", "get", "info"),
		verbs("put", "rm", "mkdir", "rmdir"),
	),
})

var RabbitMQ = register(Backend{
	Name:         "rabbitmq",
	Prefix:       "RABBITMQ",
	Environments: environment.WithLocal,
	Keys: []credential.KeySpec{
		{Field: "HOST", Optional: true, Description: "Management API host (default localhost)"},
		{Field: "PORT", Optional: true, Description: "Management API port (default 15672)"},
		{Field: "USERNAME", Optional: true, Description: "User (default guest)"},
		{Field: "PASSWORD", Optional: true, Secret: true, Description: "Password (default guest)"},
		{Field: "VHOST", Optional: true, Description: "Virtual host (default /)"},
		{Field: "SSL", Optional: true, Description: "Use https (true/false)"},
	},
	Classifier: safety.NewClassifier("rabbitmq",
		verbs("overview", "nodes", "health", "queues", "queue", "connections", "channels",
			"consumers", "exchanges", "bindings"),
		nil,
	),
})

var Datadog = register(Backend{
	Name:   "datadog",
	Prefix: "DD",
	Keys: []credential.KeySpec{
		{Field: "API_KEY", Secret: true, Description: "Datadog API key"},
		{Field: "APP_KEY", Secret: true, Description: "Datadog application key"},
		{Field: "SITE", Optional: true, Description: "Datadog site (default datadoghq.com)"},
	},
	Classifier: safety.NewClassifier("datadog",
		verbs("monitors", "monitor", "query", "dashboards", "dashboard", "events", "validate"),
		nil,
	),
})

var Vault = register(Backend{
	Name:                "vault",
	Prefix:              "VAULT",
	Environments:        environment.Standard,
	OptionalEnvironment: true,
	Keys: []credential.KeySpec{
		{Field: "ADDR", Description: "Vault address"},
		{Field: "TOKEN", Optional: true, Secret: true, Description: "Vault token (or use AppRole)"},
		{Field: "ROLE_ID", Optional: true, Description: "AppRole role id"},
		{Field: "ROLE_SECRET", Optional: true, Secret: true, Description: "AppRole secret id"},
		{Field: "NAMESPACE", Optional: true, Description: "Enterprise namespace"},
		{Field: "SKIP_VERIFY", Optional: true, Description: "Skip TLS verification (true/false)"},
		{Field: "KV_VERSION", Optional: true, Description: "Force KV engine version 1 or 2"},
	},
	Classifier: safety.NewClassifier("vault",
		verbs("get", "list", "status"),
		nil,
	),
})

// AWS covers SSO sessions and EKS access. Its classifier covers the
// opskit subcommands; kubectl verbs use Kubectl.
var AWS = register(Backend{
	Name:         "aws",
	Prefix:       "AWS",
	Environments: environment.Standard,
	Keys: []credential.KeySpec{
		{Field: "SSO_START_URL", Shared: true, Description: "SSO portal URL"},
		{Field: "SSO_REGION", Shared: true, Optional: true, Description: "SSO region (default us-east-1)"},
		{Field: "SSO_ACCOUNT_ID", Description: "Account id"},
		{Field: "SSO_ROLE_NAME", Description: "Permission set name"},
		{Field: "EKS_CLUSTER", Optional: true, Description: "EKS cluster name"},
		{Field: "EKS_REGION", Optional: true, Description: "EKS region (default us-east-1)"},
		{Field: "NAMESPACE", Optional: true, Description: "Default kubectl namespace"},
	},
	Classifier: safety.NewClassifier("aws",
		verbs("status", "list", "current", "switch", "login", "update-kubeconfig"),
		nil,
	),
})

// Kubectl classifies the arguments passed through `aws kubectl`. auth is
// judged by its subcommand: only can-i and whoami are read-only.
var Kubectl = safety.NewCompoundClassifier("kubectl",
	verbs("auth"),
	verbs("get", "describe", "logs", "top", "explain", "api-resources", "api-versions",
		"version", "cluster-info", "config", "auth can-i", "auth whoami", "events", "diff", "wait"),
	verbs("delete", "scale", "rollout", "apply", "patch", "replace", "drain", "cordon",
		"uncordon", "taint", "edit", "label", "annotate", "create", "expose", "set", "run",
		"exec", "cp", "attach", "port-forward", "auth reconcile"),
)

var VPN = register(Backend{
	Name:   "vpn",
	Prefix: "VPN_CHECK",
	Keys: []credential.KeySpec{
		{Field: "HOST", Description: "Internal host name only resolvable on the VPN"},
		{Field: "EXPECTED_IP", Optional: true, Description: "Address HOST must resolve to"},
		{Field: "TIMEOUT", Optional: true, Description: "DNS timeout in seconds (default 5)"},
		{Field: "FALLBACK_HOSTS", Optional: true, Description: "Comma-separated hosts tried when HOST fails"},
	},
	Classifier: safety.NewClassifier("vpn", verbs("check"), nil),
})
