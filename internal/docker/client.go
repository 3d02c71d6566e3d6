package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

type Client struct {
	docker *client.Client
}

func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{docker: cli}, nil
}

func (c *Client) Close() error {
	return c.docker.Close()
}

// Ping verifies the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.docker.Ping(ctx)
	return err
}

// ExecOpts describes one command run inside a container.
type ExecOpts struct {
	Cmd        []string
	Env        []string
	WorkingDir string
	Tty        bool
}

// ExecResult is the outcome of a finished exec.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Exec runs opts.Cmd in the container and waits for it to finish.
func (c *Client) Exec(ctx context.Context, containerID string, opts ExecOpts) (*ExecResult, error) {
	execCfg := container.ExecOptions{
		Cmd:          opts.Cmd,
		Env:          opts.Env,
		WorkingDir:   opts.WorkingDir,
		Tty:          opts.Tty,
		AttachStdout: true,
		AttachStderr: true,
	}

	execResp, err := c.docker.ContainerExecCreate(ctx, containerID, execCfg)
	if err != nil {
		return nil, fmt.Errorf("exec create: %w", err)
	}

	attachResp, err := c.docker.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{Tty: opts.Tty})
	if err != nil {
		return nil, fmt.Errorf("exec attach: %w", err)
	}
	defer attachResp.Close()

	stdout, stderr, err := readOutput(attachResp.Reader, opts.Tty)
	if err != nil {
		return nil, fmt.Errorf("exec read: %w", err)
	}

	inspect, err := c.docker.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("exec inspect: %w", err)
	}

	return &ExecResult{ExitCode: inspect.ExitCode, Stdout: stdout, Stderr: stderr}, nil
}

// readOutput collects the attached streams. Without a TTY Docker multiplexes
// stdout and stderr behind 8-byte frame headers.
func readOutput(r io.Reader, tty bool) (stdout, stderr []byte, err error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if tty {
		_, err = io.Copy(&stdoutBuf, r)
	} else {
		_, err = stdcopy.StdCopy(&stdoutBuf, &stderrBuf, r)
	}
	if err != nil {
		return nil, nil, err
	}
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), nil
}

// IsContainerRunning checks if a container is currently running.
func (c *Client) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	info, err := c.docker.ContainerInspect(ctx, containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info.State.Running, nil
}
