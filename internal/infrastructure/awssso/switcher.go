package awssso

import (
	"context"
	"fmt"
	"strings"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/kube"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// Switcher moves the local AWS and kubectl configuration between
// environments.
type Switcher struct {
	settings Settings
	profiles *ProfileStore
	sessions Sessions
	clusters Clusters
	run      kube.Runner
	kubectl  *kube.Kubectl
}

func NewSwitcher(settings Settings, profiles *ProfileStore, sessions Sessions, clusters Clusters, run kube.Runner) *Switcher {
	return &Switcher{
		settings: settings,
		profiles: profiles,
		sessions: sessions,
		clusters: clusters,
		run:      run,
		kubectl:  kube.NewKubectl(run),
	}
}

// Active reports whether t's profile has a valid SSO session.
func (s *Switcher) Active(ctx context.Context, t Target) bool {
	id, err := s.sessions.CallerIdentity(ctx, t.Profile())
	if err != nil {
		ui.Debug("SSO session check for %s failed: %v", t.Profile(), err)
		return false
	}
	ui.Debug("SSO session for %s is %s", t.Profile(), id.ARN)
	return true
}

func (s *Switcher) login(ctx context.Context, t Target) error {
	ui.Infof("Initiating SSO login for profile: %s", t.Profile())
	ui.Infof("A browser window will open for authentication...")
	if err := s.run.Attach(ctx, "aws", "sso", "login", "--profile", t.Profile()); err != nil {
		return errUtils.WithHints(
			fmt.Errorf("SSO login failed: %w", kube.ToolError("aws", err)),
			"check AWS_SSO_START_URL and that your user is assigned to account "+t.AccountID,
		)
	}
	return nil
}

func (s *Switcher) ensureSession(ctx context.Context, t Target) error {
	if _, err := s.profiles.Ensure(s.settings, t); err != nil {
		return err
	}
	if s.Active(ctx, t) {
		return nil
	}
	ui.Infof("SSO session not active for %s, initiating login...", t.Env)
	return s.login(ctx, t)
}

func (s *Switcher) updateKubeconfig(ctx context.Context, t Target) error {
	c, err := s.clusters.DescribeCluster(ctx, t.Profile(), t.Region, t.Cluster)
	if err != nil {
		return err
	}
	if c.Status != "" && c.Status != "ACTIVE" {
		ui.Warnf("Cluster %s is %s", t.Cluster, c.Status)
	}

	ui.Step("Updating kubeconfig for cluster: %s", t.Cluster)
	_, err = s.run.Output(ctx, "aws", "eks", "update-kubeconfig",
		"--name", t.Cluster,
		"--region", t.Region,
		"--profile", t.Profile(),
		"--alias", t.Context(),
	)
	if err != nil {
		return fmt.Errorf("failed to update kubeconfig: %w", kube.ToolError("aws", err))
	}
	ui.Successf("Kubeconfig updated for %s (%s)", t.Env, t.Cluster)
	return nil
}

// useContext selects t's context, creating it first when missing.
func (s *Switcher) useContext(ctx context.Context, t Target) error {
	ok, err := s.kubectl.HasContext(ctx, t.Context())
	if err != nil {
		return err
	}
	if !ok {
		if err := s.updateKubeconfig(ctx, t); err != nil {
			return err
		}
	}
	return s.kubectl.UseContext(ctx, t.Context())
}

func requireCluster(t Target) error {
	if t.Cluster != "" {
		return nil
	}
	return errUtils.WithHints(
		fmt.Errorf("%w: no EKS cluster configured for %s", errUtils.ErrInvalidConfig, t.Env),
		fmt.Sprintf("set AWS_%s_EKS_CLUSTER", t.Env),
	)
}

// Login forces a new SSO login for t.
func (s *Switcher) Login(ctx context.Context, t Target) (*output.Result, error) {
	if _, err := s.profiles.Ensure(s.settings, t); err != nil {
		return nil, err
	}
	if err := s.login(ctx, t); err != nil {
		return nil, err
	}
	return output.Message("SSO login successful for %s", t.Env), nil
}

// UpdateKubeconfig refreshes the kubeconfig entry for t's cluster.
func (s *Switcher) UpdateKubeconfig(ctx context.Context, t Target) (*output.Result, error) {
	if err := requireCluster(t); err != nil {
		return nil, err
	}
	if err := s.ensureSession(ctx, t); err != nil {
		return nil, err
	}
	if err := s.updateKubeconfig(ctx, t); err != nil {
		return nil, err
	}
	return &output.Result{Fields: []output.Field{
		{Key: "Environment", Value: t.Env.String()},
		{Key: "Cluster", Value: t.Cluster},
		{Key: "Context", Value: t.Context()},
	}}, nil
}

// Switch logs in when needed, refreshes kubeconfig and makes t's context
// current. A cluster that cannot be reached is reported, not returned as an
// error.
func (s *Switcher) Switch(ctx context.Context, t Target) (*output.Result, error) {
	ui.Header("Switching to %s environment...", t.Env)
	if err := s.ensureSession(ctx, t); err != nil {
		return nil, err
	}
	if t.Cluster == "" {
		return output.Message("Switched to %s (no EKS cluster configured)", t.Env), nil
	}
	if err := s.updateKubeconfig(ctx, t); err != nil {
		return nil, err
	}
	if err := s.kubectl.UseContext(ctx, t.Context()); err != nil {
		return nil, err
	}

	status := "Connected"
	ui.Step("Verifying cluster connection...")
	if err := s.kubectl.ClusterInfo(ctx, t.Context()); err != nil {
		ui.Warnf("Could not verify cluster connection: %v", err)
		ui.Warnf("Try checking VPN or cluster status.")
		status = "Unverified"
	}
	return &output.Result{Fields: []output.Field{
		{Key: "Environment", Value: t.Env.String()},
		{Key: "Profile", Value: t.Profile()},
		{Key: "Cluster", Value: t.Cluster},
		{Key: "Context", Value: t.Context()},
		{Key: "Status", Value: status},
	}}, nil
}

// Kubectl runs kubectl against t's cluster with its default namespace.
func (s *Switcher) Kubectl(ctx context.Context, t Target, args []string) error {
	if err := requireCluster(t); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: no kubectl arguments given", errUtils.ErrInvalidArgument)
	}
	if err := s.ensureSession(ctx, t); err != nil {
		return err
	}
	if err := s.useContext(ctx, t); err != nil {
		return err
	}
	ui.Infof("[%s] Running: kubectl %s", t.Env, strings.Join(args, " "))
	return s.kubectl.Run(ctx, t.Context(), t.Namespace, args)
}

// EnvStatus is one row of Status.
type EnvStatus struct {
	Env           string `json:"env"`
	Profile       string `json:"profile"`
	Cluster       string `json:"cluster"`
	Authenticated bool   `json:"authenticated"`
}

func noEnvironments() *output.Result {
	return &output.Result{
		Text: "No environments configured.\n\n" +
			"Add environment configurations to .credentials:\n" +
			"  AWS_DEV_SSO_ACCOUNT_ID, AWS_DEV_SSO_ROLE_NAME, AWS_DEV_EKS_CLUSTER",
		Data: []any{},
	}
}

func configured(targets []Target) []Target {
	var out []Target
	for _, t := range targets {
		if t.Configured() {
			out = append(out, t)
		}
	}
	return out
}

// Status checks the SSO session of every configured environment.
func (s *Switcher) Status(ctx context.Context, targets []Target) *output.Result {
	targets = configured(targets)
	if len(targets) == 0 {
		return noEnvironments()
	}

	rows := make([][]string, 0, len(targets))
	data := make([]EnvStatus, 0, len(targets))
	for _, t := range targets {
		st := EnvStatus{
			Env:           t.Env.String(),
			Profile:       t.Profile(),
			Cluster:       t.Cluster,
			Authenticated: s.Active(ctx, t),
		}
		data = append(data, st)

		label := "[--] Not authenticated"
		if st.Authenticated {
			label = "[OK] Authenticated"
		}
		cluster := t.Cluster
		if cluster == "" {
			cluster = "Not configured"
		}
		rows = append(rows, []string{st.Env, label, st.Profile, cluster})
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"Env", "Status", "Profile", "Cluster"}, Rows: rows},
		Data:   data,
		Footer: fmt.Sprintf("SSO Start URL: %s (%s)", s.settings.StartURL, s.settings.Region),
	}
}

// List shows the configured environments without contacting AWS.
func List(targets []Target) *output.Result {
	targets = configured(targets)
	if len(targets) == 0 {
		return noEnvironments()
	}
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		cluster := t.Cluster
		if cluster == "" {
			cluster = "N/A"
		}
		rows = append(rows, []string{t.Env.String(), t.AccountID, t.RoleName, cluster, t.Region, t.Namespace})
	}
	return &output.Result{Table: &output.Table{
		Columns: []string{"Env", "Account ID", "Role", "Cluster", "Region", "Namespace"},
		Rows:    rows,
	}}
}

// Detect finds the environment whose context is current. Contexts named
// "<env>-..." win over a plain substring match.
func Detect(current string, targets []Target) (Target, bool) {
	current = strings.ToLower(current)
	var loose *Target
	for _, t := range configured(targets) {
		if t.Cluster == "" {
			continue
		}
		if strings.HasPrefix(current, t.Env.Lower()+"-") {
			return t, true
		}
		if loose == nil && strings.Contains(current, t.Env.Lower()) {
			loose = &t
		}
	}
	if loose != nil {
		return *loose, true
	}
	return Target{}, false
}

// CurrentContext returns the kubectl context in use.
func (s *Switcher) CurrentContext(ctx context.Context) string {
	return s.kubectl.CurrentContext(ctx)
}

// Current reports the kubectl context and the environment it belongs to.
func (s *Switcher) Current(ctx context.Context, targets []Target) *output.Result {
	current := s.kubectl.CurrentContext(ctx)
	fields := []output.Field{{Key: "kubectl context", Value: current}}
	t, ok := Detect(current, targets)
	if !ok {
		fields = append(fields, output.Field{Key: "Environment", Value: "Unknown (context not matching configured environments)"})
		return &output.Result{Fields: fields}
	}
	fields = append(fields,
		output.Field{Key: "Environment", Value: t.Env.String()},
		output.Field{Key: "Cluster", Value: t.Cluster},
		output.Field{Key: "Region", Value: t.Region},
		output.Field{Key: "Namespace", Value: t.Namespace},
	)
	return &output.Result{Fields: fields}
}
