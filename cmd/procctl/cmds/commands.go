package cmds

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mem-editor/procctl/pkg/config"
	"github.com/mem-editor/procctl/pkg/logflags"
	"github.com/mem-editor/procctl/pkg/proc/native"
	"github.com/mem-editor/procctl/pkg/version"
	"github.com/mem-editor/procctl/service"
	"github.com/mem-editor/procctl/service/api"
	"github.com/mem-editor/procctl/service/rpc1"
	"github.com/mem-editor/procctl/service/rpccommon"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// acceptMulti allows multiple clients to connect to the same server
	acceptMulti bool
	// addr is the server listen address.
	addr string
	// connectAddr is the address of a running server. When empty client
	// commands run against an in-process backend.
	connectAddr string
	// checkLocalConnUser is true if the server should check that local
	// connections come from the same user that started it.
	checkLocalConnUser bool

	// continue flags
	continueAddr   uint64
	continueSignal int

	// wait flags
	waitOptions string
	waitTimeout time.Duration

	// attach flags
	attachWait bool

	// task flags
	taskKeep bool

	conf *config.Config
)

const procctlCommandLongDesc = `procctl controls other processes through the host's ptrace facility.

It lists processes, attaches to and detaches from them, resumes them, waits
for their status changes and acquires task handles for memory access.

Client commands run against an in-process backend unless --connect is given,
in which case they are sent to a server started with 'procctl serve'.`

// New returns an initialized command tree.
func New() *cobra.Command {
	// Config setup and load.
	conf = config.LoadConfig()

	listenDefault := "127.0.0.1:0"
	if conf.Listen != "" {
		listenDefault = conf.Listen
	}

	rootCommand := &cobra.Command{
		Use:          "procctl",
		Short:        "procctl is a process-control backend for debuggers and memory editors.",
		Long:         procctlCommandLongDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if log && logOutput == "" {
				logOutput = conf.LogOutput
			}
			return logflags.Setup(log, logOutput, logDest)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logflags.Close()
		},
	}

	addServerFlags(rootCommand.PersistentFlags(), listenDefault)
	addLogFlags(rootCommand.PersistentFlags())

	// 'serve' subcommand.
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Starts a headless JSON-RPC server.",
		Long: `Starts a headless JSON-RPC server exposing the process-control operations.

The server runs until it receives SIGINT or, without --accept-multiclient,
until its client disconnects. Processes still traced when it stops are
detached.`,
		Args: cobra.NoArgs,
		RunE: serveCmd,
	}
	rootCommand.AddCommand(serveCommand)

	// 'ps' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "ps",
		Short: "Lists processes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client service.Client) error {
				entries, err := client.ListProcesses()
				if err != nil {
					return err
				}
				return api.PrintProcesses(cmd.OutOrStdout(), entries)
			})
		},
	})

	// 'attach' subcommand.
	attachCommand := &cobra.Command{
		Use:   "attach pid",
		Short: "Attaches to a running process.",
		Long: `Attaches to a running process.

The kernel stops the process asynchronously; use --wait (or the wait
command) to observe the stop. Without --connect the process is detached
again when the command exits.`,
		Args: cobra.ExactArgs(1),
		RunE: attachCmd,
	}
	attachCommand.Flags().BoolVar(&attachWait, "wait", false, "Wait for the attach stop before returning.")
	rootCommand.AddCommand(attachCommand)

	// 'detach' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "detach pid",
		Short: "Detaches from a traced process.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args[0])
			if err != nil {
				return err
			}
			return withClient(func(client service.Client) error {
				tp, err := client.Detach(pid)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tp)
				return nil
			})
		},
	})

	// 'continue' subcommand.
	continueCommand := &cobra.Command{
		Use:   "continue pid",
		Short: "Resumes a stopped process.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args[0])
			if err != nil {
				return err
			}
			return withClient(func(client service.Client) error {
				tp, err := client.Continue(pid, continueAddr, continueSignal)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tp)
				return nil
			})
		},
	}
	continueCommand.Flags().Uint64Var(&continueAddr, "addr", 1, "Address to resume at, 1 resumes where the process stopped (ignored on Linux).")
	continueCommand.Flags().IntVar(&continueSignal, "signal", 0, "Signal delivered to the process when it resumes.")
	rootCommand.AddCommand(continueCommand)

	// 'wait' subcommand.
	waitCommand := &cobra.Command{
		Use:   "wait pid",
		Short: "Waits for a process to change state.",
		Long: `Waits for a process to change state and prints the raw and decoded status.

--options is a comma separated list of nohang, untraced and continued.`,
		Args: cobra.ExactArgs(1),
		RunE: waitCmd,
	}
	waitCommand.Flags().StringVar(&waitOptions, "options", "", "Comma separated wait options.")
	waitCommand.Flags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long, 0 waits forever.")
	rootCommand.AddCommand(waitCommand)

	// 'task' subcommand.
	taskCommand := &cobra.Command{
		Use:   "task pid",
		Short: "Acquires a task handle for a process.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePid(args[0])
			if err != nil {
				return err
			}
			return withClient(func(client service.Client) error {
				task, err := client.TaskForPid(pid)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pid %d task %#x\n", task.Pid, task.Port)
				if taskKeep {
					return nil
				}
				return client.ReleaseTask(task)
			})
		},
	}
	taskCommand.Flags().BoolVar(&taskKeep, "keep", false, "Do not release the handle (only useful with --connect).")
	rootCommand.AddCommand(taskCommand)

	// 'status' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Lists traced processes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client service.Client) error {
				traced, err := client.Traced()
				if err != nil {
					return err
				}
				for _, tp := range traced {
					fmt.Fprintln(cmd.OutOrStdout(), tp)
				}
				return nil
			})
		},
	})

	// 'privileges' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "privileges",
		Short: "Reports what this user is allowed to trace.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client service.Client) error {
				p, err := client.Privileges()
				if err != nil {
					return err
				}
				api.PrintPrivileges(cmd.OutOrStdout(), p)
				return nil
			})
		},
	})

	// 'version' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "procctl\n%s\n", version.ProcctlVersion)
			if connectAddr == "" {
				if log {
					fmt.Fprintln(cmd.OutOrStdout(), version.BuildInfo())
				}
				return nil
			}
			return withClient(func(client service.Client) error {
				v, err := client.GetVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server %s\nAPI version: %d\nBackend: %s\n", v.ProcctlVersion, v.APIVersion, v.Backend)
				return nil
			})
		},
	})

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	ptrace		Log ptrace requests and wait results
	rpc		Log all RPC messages
	enum		Log process enumeration

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func addServerFlags(fs *pflag.FlagSet, listenDefault string) {
	fs.StringVarP(&addr, "listen", "l", listenDefault, "Server listen address.")
	fs.StringVar(&connectAddr, "connect", "", "Send client commands to the server at this address.")
	fs.BoolVarP(&acceptMulti, "accept-multiclient", "", conf.AcceptMulticlient, "Allows the server to accept multiple client connections.")
	fs.BoolVarP(&checkLocalConnUser, "only-same-user", "", conf.SameUserOnly(), "Only connections from the same user that started the server are allowed to connect.")
}

func addLogFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&log, "log", "", false, "Enable logging.")
	fs.StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'procctl help log')`)
	fs.StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'procctl help log').")
}

func parsePid(arg string) (int, error) {
	pid, err := strconv.Atoi(arg)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid: %s", arg)
	}
	return pid, nil
}

func newBackend() *native.Backend {
	return native.New(native.Config{
		UnknownName:      conf.UnknownName,
		WaitPollInterval: conf.WaitPollInterval,
	})
}

// withClient runs fn against the server at --connect, or against an
// in-process server when --connect is not set.
func withClient(fn func(service.Client) error) error {
	if connectAddr != "" {
		client, err := rpc1.NewClient(connectAddr)
		if err != nil {
			return fmt.Errorf("could not connect to %s: %w", connectAddr, err)
		}
		defer client.Disconnect()
		return fn(client)
	}

	backend := newBackend()
	defer backend.Close()
	listener, clientConn := service.ListenerPipe()
	server := rpccommon.NewServer(&service.Config{
		Listener:   listener,
		Controller: backend,
	})
	if err := server.Run(); err != nil {
		return err
	}
	client := rpc1.NewClientFromConn(clientConn)
	err := fn(client)
	client.Disconnect()
	if stopErr := server.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func attachCmd(cmd *cobra.Command, args []string) error {
	pid, err := parsePid(args[0])
	if err != nil {
		return err
	}
	return withClient(func(client service.Client) error {
		tp, err := client.Attach(pid)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tp)
		if !attachWait {
			return nil
		}
		res, err := client.Wait(pid, 0, waitTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		if res.Error != "" {
			return errors.New(res.Error)
		}
		return nil
	})
}

func waitCmd(cmd *cobra.Command, args []string) error {
	pid, err := parsePid(args[0])
	if err != nil {
		return err
	}
	options, err := parseWaitOptions(waitOptions)
	if err != nil {
		return err
	}
	return withClient(func(client service.Client) error {
		res, err := client.Wait(pid, options, waitTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		if res.Error != "" {
			return errors.New(res.Error)
		}
		return nil
	})
}

func serveCmd(cmd *cobra.Command, args []string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("couldn't start listener: %w", err)
	}
	defer listener.Close()

	backend := newBackend()
	defer backend.Close()

	disconnectChan := make(chan struct{})
	server := rpccommon.NewServer(&service.Config{
		Listener:           listener,
		Controller:         backend,
		AcceptMulti:        acceptMulti,
		CheckLocalConnUser: checkLocalConnUser,
		DisconnectChan:     disconnectChan,
	})
	if err := server.Run(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "procctl server listening at: %s\n", listener.Addr())

	waitForDisconnectSignal(disconnectChan)
	return server.Stop()
}

// waitForDisconnectSignal is a blocking function that waits for either
// a SIGINT (Ctrl-C) signal from the OS or for disconnectChan to be closed
// by the server when the client disconnects.
func waitForDisconnectSignal(disconnectChan chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	defer signal.Stop(ch)
	select {
	case <-ch:
	case <-disconnectChan:
	}
}
