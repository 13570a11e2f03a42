package awssso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

// SessionTimeout bounds the caller identity check.
const SessionTimeout = 10 * time.Second

// Identity is the principal an SSO session resolves to.
type Identity struct {
	Account string
	ARN     string
}

// Cluster is the EKS cluster summary used before writing kubeconfig.
type Cluster struct {
	Name     string
	Status   string
	Endpoint string
	Version  string
}

// Sessions checks whether a profile has live SSO credentials.
type Sessions interface {
	CallerIdentity(ctx context.Context, profile string) (*Identity, error)
}

// Clusters looks up EKS clusters.
type Clusters interface {
	DescribeCluster(ctx context.Context, profile, region, name string) (*Cluster, error)
}

// SDK implements Sessions and Clusters with aws-sdk-go-v2.
type SDK struct {
	// ConfigFile overrides the shared config location when set.
	ConfigFile string
}

func (s SDK) load(ctx context.Context, profile, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithSharedConfigProfile(profile),
	}
	if s.ConfigFile != "" {
		opts = append(opts, awsconfig.WithSharedConfigFiles([]string{s.ConfigFile}))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS profile %s: %w", profile, err)
	}
	return cfg, nil
}

func (s SDK) CallerIdentity(ctx context.Context, profile string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, SessionTimeout)
	defer cancel()

	cfg, err := s.load(ctx, profile, "")
	if err != nil {
		return nil, err
	}
	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, err
	}
	return &Identity{Account: aws.ToString(out.Account), ARN: aws.ToString(out.Arn)}, nil
}

func (s SDK) DescribeCluster(ctx context.Context, profile, region, name string) (*Cluster, error) {
	cfg, err := s.load(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	out, err := eks.NewFromConfig(cfg).DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return nil, errUtils.WithHints(
				fmt.Errorf("%w: EKS cluster %s not found in %s", errUtils.ErrBackend, name, region),
				"check EKS_CLUSTER and EKS_REGION for this environment",
			)
		}
		return nil, fmt.Errorf("%w: describe cluster %s: %w", errUtils.ErrBackend, name, err)
	}
	c := out.Cluster
	return &Cluster{
		Name:     aws.ToString(c.Name),
		Status:   string(c.Status),
		Endpoint: aws.ToString(c.Endpoint),
		Version:  aws.ToString(c.Version),
	}, nil
}
