package codegen

import "strings"

// entrypointHeader is the fixed preamble of every generated entrypoint:
// imports plus the two helpers the task bodies call. Keeping it constant
// keeps the whole file byte-deterministic.
const entrypointHeader = `import os
import subprocess
import sys
import traceback
from pathlib import Path
from signal import SIGINT
from subprocess import CalledProcessError
from typing import NamedTuple

from helix.persistence import HelixPersistence
from helix.resources import helix_task
from helix.types import HelixDir, HelixFile


def file_name_and_size(x: Path):
    if not x.exists():
        return f"{x.name} (missing)"
    if x.is_dir():
        return f"{x.name}/"
    return f"{x.name} ({x.stat().st_size} B)"


def check_exists_and_rename(old: Path, new: Path):
    if new.exists():
        print(f"  {new} already exists, overwriting")
    new.parent.mkdir(parents=True, exist_ok=True)
    os.replace(old, new)
`

// EntrypointFileName is where the generated source is written in the
// package root and inside the task container.
const EntrypointFileName = "helix_entrypoint.py"

// GenerateEntrypoint assembles the full entrypoint source: the fixed
// header followed by every node's generated body in graph node order.
func GenerateEntrypoint(codes []string) string {
	var b strings.Builder
	b.WriteString(entrypointHeader)
	for _, code := range codes {
		b.WriteString("\n\n")
		b.WriteString(code)
	}
	return b.String()
}
