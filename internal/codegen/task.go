package codegen

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/helixbio/helix/internal/cmdline"
	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
)

// Config carries the compile-time constants baked into generated task
// bodies.
type Config struct {
	WorkflowName    string
	SnakefilePath   string
	RemoteOutputURL string // optional override for the output destination
}

// UnsupportedTypeError is raised when a parameter type outside the closed
// File/Directory set reaches the generator.
type UnsupportedTypeError struct {
	Param string
	Type  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported parameter type %s for %q", e.Type, e.Param)
}

// remoteRoot returns the content-store directory receiving terminal
// outputs, logs, and benchmarks.
func remoteRoot(cfg Config) (string, error) {
	if cfg.RemoteOutputURL == "" {
		return path.Join("/Snakemake Outputs", cfg.WorkflowName), nil
	}
	u, err := url.Parse(cfg.RemoteOutputURL)
	if err != nil {
		return "", fmt.Errorf("parse remote output url: %w", err)
	}
	return u.Path, nil
}

// GenerateTask synthesizes the executable body for one task node: input
// download bookkeeping, the single-job re-entry subprocess, log handling,
// upload of logs and benchmarks, and the typed result. The output is a
// pure function of the node and job.
func GenerateTask(node *wfgraph.TaskNode, job *smk.Job, cfg Config) (string, error) {
	for _, p := range append(append([]wfgraph.TypedParameter{}, node.Interface.Inputs...), node.Interface.Outputs...) {
		if p.Type != wfgraph.ParamFile && p.Type != wfgraph.ParamDirectory {
			return "", &UnsupportedTypeError{Param: p.Name, Type: p.Type.String()}
		}
	}

	remotePath, err := remoteRoot(cfg)
	if err != nil {
		return "", err
	}

	payload, err := smk.RulePayload(job)
	if err != nil {
		return "", fmt.Errorf("rule payload: %w", err)
	}

	builder := cmdline.Builder{SnakefilePath: cfg.SnakefilePath}
	args := builder.Build(job)

	var stmts []Stmt
	if rc := resultClass(node); rc != nil {
		stmts = append(stmts, rc, Blank{})
	}

	body := []Stmt{}
	for _, p := range node.Interface.Inputs {
		body = append(body, inputPreamble(p)...)
	}
	body = append(body, compileSaveBlock(node, cfg, args, payload)...)
	body = append(body, runBlock(node, job, remotePath, args, payload)...)
	body = append(body, returnStmt(node, remotePath)...)

	stmts = append(stmts,
		Line("@helix_task(cache=True)"),
		Block{Header: signature(node), Body: body},
	)

	return Render(0, stmts...), nil
}

// resultClass builds the NamedTuple result type, or nil when the node has
// no outputs.
func resultClass(node *wfgraph.TaskNode) Stmt {
	if len(node.Interface.Outputs) == 0 {
		return nil
	}
	fields := make([]Stmt, 0, len(node.Interface.Outputs))
	for _, p := range node.Interface.Outputs {
		fields = append(fields, Line(fmt.Sprintf("%s: %s", p.Name, p.Type.PyType())))
	}
	return Block{Header: fmt.Sprintf("class Res%s(NamedTuple):", node.Name), Body: fields}
}

// signature renders the decorated function header with one parameter per
// line.
func signature(node *wfgraph.TaskNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(\n", node.Name)
	for _, p := range node.Interface.Inputs {
		fmt.Fprintf(&b, "    %s: %s,\n", p.Name, p.Type.PyType())
	}
	result := "None"
	if len(node.Interface.Outputs) > 0 {
		result = "Res" + node.Name
	}
	fmt.Fprintf(&b, ") -> %s:", result)
	return b.String()
}

// inputPreamble acknowledges the download of one input and moves it to the
// exact relative path the rule expects on disk.
func inputPreamble(p wfgraph.TypedParameter) []Stmt {
	stmts := []Stmt{
		Line(fmt.Sprintf("%s_dst_p = Path(%s)", p.Name, pyStr(p.TargetPath))),
		Blank{},
		Line(fmt.Sprintf("print(f\"Downloading %s: {%s.remote_path}\")", p.Name, p.Name)),
		Line(fmt.Sprintf("%s_p = Path(%s).resolve()", p.Name, p.Name)),
		Line(fmt.Sprintf("print(f\"  {file_name_and_size(%s_p)}\")", p.Name)),
		Blank{},
	}

	if p.Type == wfgraph.ParamDirectory {
		stmts = append(stmts,
			Block{
				Header: fmt.Sprintf("for x in %s_p.iterdir():", p.Name),
				Body:   []Stmt{Line(`print(f"    {file_name_and_size(x)}")`)},
			},
			Blank{},
		)
	}

	stmts = append(stmts,
		Line(fmt.Sprintf("print(f\"Moving %s to {%s_dst_p}\")", p.Name, p.Name)),
		Line(fmt.Sprintf("check_exists_and_rename(%s_p, %s_dst_p)", p.Name, p.Name)),
		Blank{},
	)
	return stmts
}

// compileSaveBlock saves the compiled single-job script for review and
// uploads it next to the workflow's artifacts. Failures here never fail
// the task.
func compileSaveBlock(node *wfgraph.TaskNode, cfg Config, args []string, payload []byte) []Stmt {
	compiledArgs := append(append([]string{}, args...), "--print-compilation")
	compiledRemote := "helix://" + path.Join(
		"/.helix/workflows", cfg.WorkflowName, "compiled_tasks", node.Name+".py")

	return []Stmt{
		Line("lp = HelixPersistence()"),
		Line(`compiled = Path("compiled.py")`),
		Line(`print("Saving compiled Snakemake script")`),
		Block{Header: `with compiled.open("w") as f:`, Body: []Stmt{
			Block{Header: "try:", Body: []Stmt{
				Line("subprocess.run("),
				Line("    " + pyArgv(compiledArgs) + ","),
				Line("    check=True,"),
				Line("    env={"),
				Line("        **os.environ,"),
				Line(`        "HELIX_SNAKEMAKE_DATA": ` + pyStr(string(payload)) + ","),
				Line("    },"),
				Line("    stdout=f,"),
				Line(")"),
			}},
			Block{Header: "except CalledProcessError:", Body: []Stmt{
				Line(`print("  Failed")`),
			}},
			Block{Header: "except Exception:", Body: []Stmt{
				Line("traceback.print_exc()"),
			}},
		}},
		Line(fmt.Sprintf("lp.upload(compiled, %s)", pyStr(compiledRemote))),
		Blank{},
	}
}

// remoteUploadExpr renders the Python expression computing the upload
// destination for a local path. The root comes from user-supplied
// configuration, so it stays inside a quoted literal instead of being
// spliced into an f-string.
func remoteUploadExpr(remotePath string) string {
	return pyStr("helix://"+remotePath+"/") + ` + str(local).removeprefix("/")`
}

// runBlock executes the re-entry command with log tailing, uploads logs
// and the optional benchmark, and dumps a recursive directory listing on
// failure before exiting non-zero.
func runBlock(node *wfgraph.TaskNode, job *smk.Job, remotePath string, args []string, payload []byte) []Stmt {
	logFiles := job.Log
	if logFiles == nil {
		logFiles = []string{}
	}

	runner := Block{Header: "try:", Body: []Stmt{
		Line("tail = None"),
		Block{Header: "if len(log_files) == 1:", Body: []Stmt{
			Line("log = Path(log_files[0])"),
			Line(`print(f"Tailing the only log file: {log}")`),
			Line(`tail = subprocess.Popen(["tail", "--follow", log])`),
		}},
		Blank{},
		Line(`print("\n\n\n")`),
		Block{Header: "try:", Body: []Stmt{
			Line("subprocess.run("),
			Line("    " + pyArgv(args) + ","),
			Line("    check=True,"),
			Line("    env={"),
			Line("        **os.environ,"),
			Line(`        "HELIX_SNAKEMAKE_DATA": ` + pyStr(string(payload)) + ","),
			Line("    },"),
			Line(")"),
		}},
		Block{Header: "finally:", Body: []Stmt{
			Block{Header: "if tail is not None:", Body: []Stmt{
				Line("tail.send_signal(SIGINT)"),
				Block{Header: "try:", Body: []Stmt{Line("tail.wait(1)")}},
				Block{Header: "except subprocess.TimeoutExpired:", Body: []Stmt{Line("tail.kill()")}},
				Blank{},
				Line("tail.wait()"),
				Block{Header: "if tail.returncode != 0:", Body: []Stmt{
					Line(`print(f"\n\n\n[!] Log file tail died with code {tail.returncode}")`),
				}},
			}},
		}},
		Blank{},
		Line(`print("\n\n\nDone\n\n\n")`),
	}}

	uploader := Block{Header: "finally:", Body: []Stmt{
		Line(`print("Uploading logs:")`),
		Block{Header: "for x in log_files:", Body: []Stmt{
			Line("local = Path(x)"),
			Line("remote = " + remoteUploadExpr(remotePath)),
			Line(`print(f"  {file_name_and_size(local)} -> {remote}")`),
			Block{Header: "if not local.exists():", Body: []Stmt{
				Line(`print("  Does not exist")`),
				Line("continue"),
			}},
			Blank{},
			Line("lp.upload(local, remote)"),
			Line(`print("    Done")`),
		}},
		Blank{},
		Line(fmt.Sprintf("benchmark_file = %s", pyOptStr(job.Benchmark))),
		Block{Header: "if benchmark_file is not None:", Body: []Stmt{
			Line(`print("\nUploading benchmark:")`),
			Blank{},
			Line("local = Path(benchmark_file)"),
			Block{Header: "if local.exists():", Body: []Stmt{
				Line("print(local.read_text())"),
				Blank{},
				Line("remote = " + remoteUploadExpr(remotePath)),
				Line(`print(f"  {file_name_and_size(local)} -> {remote}")`),
				Line("lp.upload(local, remote)"),
				Line(`print("    Done")`),
			}},
			Block{Header: "else:", Body: []Stmt{
				Line(`print("  Does not exist")`),
			}},
		}},
	}}

	listing := Block{Header: "except CalledProcessError:", Body: []Stmt{
		Line(`ignored_paths = {".cache"}`),
		Line(`ignored_names = {".git", ".helix", "__pycache__"}`),
		Blank{},
		Line(`print("Recursive directory listing:")`),
		Line(`stack = [(Path("."), 0)]`),
		Block{Header: "while len(stack) > 0:", Body: []Stmt{
			Line("cur, indent = stack.pop()"),
			Line(`print("  " * indent + cur.name)`),
			Blank{},
			Block{Header: "if cur.is_dir():", Body: []Stmt{
				Block{Header: "if cur.name in ignored_names or str(cur) in ignored_paths:", Body: []Stmt{
					Line(`print("  " * indent + "  ...")`),
					Line("continue"),
				}},
				Blank{},
				Block{Header: "for x in cur.iterdir():", Body: []Stmt{
					Line("stack.append((x, indent + 1))"),
				}},
			}},
		}},
		Blank{},
		Line("sys.exit(1)"),
	}}

	return []Stmt{
		Line(`print("\n\n\nRunning snakemake task\n")`),
		Block{Header: "try:", Body: []Stmt{
			Line(fmt.Sprintf("log_files = %s", pyStrList(logFiles))),
			runner,
			Block{Header: "except Exception as e:", Body: []Stmt{
				Line(`print("\n\n\n[!] Failed\n\n\n")`),
				Line("raise e"),
			}},
			uploader,
		}},
		listing,
		Blank{},
	}
}

// returnStmt constructs the typed result: handles wrapping each output's
// target path, with a remote destination annotation for terminal outputs.
func returnStmt(node *wfgraph.TaskNode, remotePath string) []Stmt {
	if len(node.Interface.Outputs) == 0 {
		return []Stmt{Line("return None")}
	}

	stmts := []Stmt{Line(`print("Uploading results:")`)}
	for _, p := range node.Interface.Outputs {
		stmts = append(stmts, Line(fmt.Sprintf(
			"print(f'  %s={file_name_and_size(Path(%s))}')", p.Name, pyStr(p.TargetPath))))
	}
	stmts = append(stmts, Blank{})

	var results []Stmt
	for _, p := range node.Interface.Outputs {
		if node.IsTarget {
			remote := "helix://" + path.Join(remotePath, strings.TrimLeft(p.TargetPath, "/"))
			results = append(results, Line(fmt.Sprintf(
				"%s=%s(%s, %s),", p.Name, p.Type.PyType(), pyStr(p.TargetPath), pyStr(remote))))
			continue
		}
		results = append(results, Line(fmt.Sprintf(
			"%s=%s(%s),", p.Name, p.Type.PyType(), pyStr(p.TargetPath))))
	}

	stmts = append(stmts, Block{Header: fmt.Sprintf("return Res%s(", node.Name), Body: results}, Line(")"))
	return stmts
}
