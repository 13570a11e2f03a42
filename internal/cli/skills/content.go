package skills

// SkillName is the directory the skill is installed under.
const SkillName = "using-opskit"

// OpskitSkillContent contains the SKILL.md content for AI assistants
const OpskitSkillContent = `---
name: using-opskit
description: Query and operate team infrastructure with the opskit CLI. Use when reading or changing Redis, MySQL, Oracle, S3, SFTP, RabbitMQ, Datadog, Vault, AWS SSO/EKS, or checking VPN connectivity in dev, qa, uat or prod.
allowed-tools:
  - Bash(opskit *)
---

# Using opskit

opskit runs one-off operations against team backends with credentials read
from environment variables and .credentials files. Every write is gated:
non-production writes ask "Proceed? [y/N]", production writes require typing
` + "`PROD`" + `.

**Config location:** ` + "`~/.opskit/`" + `
- ` + "`config.yaml`" + ` - Default environment, output format, credentials dir
- ` + "`<backend>/references/.credentials`" + ` - Backend credentials

## Rules

1. Always pass ` + "`-e <env>`" + `. Environments are dev, qa, uat and prod.
2. Run ` + "`opskit vpn check --quiet`" + ` first when a backend is only reachable on the VPN.
3. Use ` + "`--dry-run`" + ` to show what a write would do before running it.
4. Never pipe answers into a production confirmation. Ask the user to confirm.
5. ` + "`--yes`" + ` only skips advisory warnings, never a write confirmation.

## Quick Reference

### Credentials
` + "```bash" + `
opskit credentials check mysql -e qa     # Show every key, its source and status
opskit credentials init redis -e dev     # Add placeholders for missing keys
opskit credentials setup --example .credentials.example
opskit mysql -e qa --show-config         # Show resolved credentials (secrets masked)
` + "```" + `

### Redis
` + "```bash" + `
opskit redis -e dev get session:42
opskit redis -e dev keys 'user:*'
opskit redis -e qa set feature:x on --ttl 3600
opskit redis -e dev info --section memory
` + "```" + `

### SQL (MySQL / Oracle)
` + "```bash" + `
opskit mysql -e qa -q "SELECT * FROM orders LIMIT 10"
opskit oracle -e uat -q "SELECT * FROM accounts FETCH FIRST 10 ROWS ONLY" -f csv -o out.csv
` + "```" + `

### Files (S3 / SFTP)
` + "```bash" + `
opskit s3 -e dev ls reports/ -r
opskit s3 -e dev get reports/daily.csv -o daily.csv
opskit sftp -e qa ls /outbound
opskit sftp -e qa put local.txt /inbound/local.txt
` + "```" + `

### RabbitMQ
` + "```bash" + `
opskit rabbitmq -e prod health
opskit rabbitmq -e prod queues --backlog
opskit rabbitmq -e qa queue orders --rates
` + "```" + `

### Datadog
` + "```bash" + `
opskit datadog validate
opskit datadog monitors --status Alert
opskit datadog query --metric 'avg:system.cpu.user{env:prod}' --from 4
` + "```" + `

### Vault
` + "```bash" + `
opskit vault -e qa status
opskit vault -e qa list secret/app
opskit vault -e qa get secret/app/db --key password --show
` + "```" + `

### AWS SSO and EKS
` + "```bash" + `
opskit aws status                         # SSO session per environment
opskit aws switch -e qa                   # Log in and switch kubectl context
opskit aws kubectl -e qa -- get pods
opskit aws current
` + "```" + `

## Output

` + "`-f text|markdown|json|csv`" + ` selects the format where supported and
` + "`-o <file>`" + ` writes results to a file. Diagnostics go to stderr.

## Exit codes

- ` + "`0`" + ` success, or a write the user declined
- ` + "`1`" + ` error (missing credentials, connection failure, failed query)
- ` + "`2`" + ` ` + "`vpn check`" + ` configuration error
`
