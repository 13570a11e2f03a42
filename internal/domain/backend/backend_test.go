package backend

import (
	"testing"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
)

func TestRegistry(t *testing.T) {
	want := []string{"aws", "datadog", "mysql", "oracle", "rabbitmq", "redis", "s3", "sftp", "vault", "vpn"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, ok := Lookup("postgres"); ok {
		t.Error("unexpected backend postgres")
	}
}

func TestMultiEnvironment(t *testing.T) {
	tests := map[string]bool{
		"redis":    true,
		"rabbitmq": true,
		"vault":    false,
		"datadog":  false,
		"aws":      true,
	}
	for name, want := range tests {
		b, _ := Lookup(name)
		if got := b.MultiEnvironment(); got != want {
			t.Errorf("%s.MultiEnvironment() = %v, want %v", name, got, want)
		}
	}
}

func TestRequestNames(t *testing.T) {
	req := MySQL.Request(environment.UAT)
	host, _ := req.Key("HOST")
	if got := req.EnvName(host); got != "MYSQL_UAT_HOST" {
		t.Errorf("EnvName(HOST) = %q", got)
	}

	dd := Datadog.Request(environment.None)
	key, _ := dd.Key("API_KEY")
	if got := dd.EnvName(key); got != "DD_API_KEY" {
		t.Errorf("EnvName(API_KEY) = %q", got)
	}
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		classifier *safety.Classifier
		command    string
		want       safety.Classification
	}{
		{Redis.Classifier, "hgetall user:1", safety.ReadOnly},
		{Redis.Classifier, "flushall", safety.Mutating},
		{Redis.Classifier, "rename a b", safety.Mutating},
		{MySQL.Classifier, "/* audit */ SELECT 1", safety.ReadOnly},
		{MySQL.Classifier, "REPLACE INTO t VALUES (1)", safety.Mutating},
		{MySQL.Classifier, "WITH x AS (SELECT 1) SELECT * FROM x", safety.Mutating},
		{Oracle.Classifier, "MERGE INTO t USING s ON (1=1)", safety.Mutating},
		{S3.Classifier, "ls", safety.ReadOnly},
		{S3.Classifier, "cp", safety.Mutating},
		{SFTP.Classifier, "rmdir", safety.Mutating},
		{RabbitMQ.Classifier, "queues", safety.ReadOnly},
		{RabbitMQ.Classifier, "purge", safety.Mutating},
		{Datadog.Classifier, "monitors", safety.ReadOnly},
		{Vault.Classifier, "get", safety.ReadOnly},
		{Vault.Classifier, "put", safety.Mutating},
		{Kubectl, "get pods", safety.ReadOnly},
		{Kubectl, "delete pod x", safety.Mutating},
		{Kubectl, "krew install", safety.Mutating},
		{Kubectl, "auth can-i delete pods", safety.ReadOnly},
		{Kubectl, "auth whoami", safety.ReadOnly},
		{Kubectl, "auth reconcile -f rbac.yaml", safety.Mutating},
		{Kubectl, "auth", safety.Mutating},
	}
	for _, tt := range tests {
		if got := tt.classifier.Classify(tt.command); got != tt.want {
			t.Errorf("%s.Classify(%q) = %v, want %v", tt.classifier.Backend(), tt.command, got, tt.want)
		}
	}
}
