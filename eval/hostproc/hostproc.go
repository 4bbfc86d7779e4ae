// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostproc is an escape hatch for host-registered capabilities that
// need a real subprocess, isolated from the sandbox's own process. It is
// never on the hot path of the interpreter's evaluate() loop: a capability
// built on this package is registered into a policy.Registry like any other
// host function, and only runs when guest code calls it by name.
package hostproc

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Runner executes a single command inside a short-lived container and
// returns its combined output. It is grounded on the teacher's
// ContainerExecutor, trimmed to a one-shot call suitable for registering as
// a single policy capability (e.g. a "run_shell" or "run_python" tool)
// rather than a general-purpose code executor.
type Runner struct {
	cli   *client.Client
	image string
}

// NewRunner builds a Runner against the given image, using the Docker
// client configuration found in the environment (DOCKER_HOST and friends).
func NewRunner(image string) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("hostproc: create docker client: %w", err)
	}
	return &Runner{cli: cli, image: image}, nil
}

// Run pulls the configured image if needed, starts a throwaway container,
// executes cmd inside it with no network access, and returns its combined
// stdout and stderr.
// The container is always removed before Run returns.
func (r *Runner) Run(ctx context.Context, cmd []string) (string, error) {
	if err := r.ensureImage(ctx); err != nil {
		return "", err
	}

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:      r.image,
		Cmd:        cmd,
		WorkingDir: "/workspace",
	}, &container.HostConfig{
		NetworkMode: "none",
	}, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("hostproc: create container: %w", err)
	}
	containerID := resp.ID
	defer r.cli.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true})

	if err := r.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("hostproc: start container: %w", err)
	}

	statusCh, errCh := r.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return "", fmt.Errorf("hostproc: wait container: %w", err)
		}
	case <-statusCh:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	out, err := r.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", fmt.Errorf("hostproc: read logs: %w", err)
	}
	defer out.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out); err != nil {
		return "", fmt.Errorf("hostproc: copy logs: %w", err)
	}
	return buf.String(), nil
}

func (r *Runner) ensureImage(ctx context.Context) error {
	images, err := r.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("hostproc: list images: %w", err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == r.image {
				return nil
			}
		}
	}
	rc, err := r.cli.ImagePull(ctx, r.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("hostproc: pull image %q: %w", r.image, err)
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// WriteFiles packs files into a tar stream, the format Docker's
// CopyToContainer expects — exposed so a registered capability can stage
// input files before calling Run against a stateful container it manages
// itself.
func WriteFiles(files map[string][]byte) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644, ModTime: time.Now()}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(content); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Close releases the underlying Docker client connection.
func (r *Runner) Close() error { return r.cli.Close() }
