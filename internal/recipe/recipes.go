package recipe

import "log/slog"

// script collects the first error from a sequence of setup steps, letting
// recipes read as straight-line command lists.
type script struct {
	err error
}

func (s *script) run(cmd CommandFunc, args string) {
	if s.err == nil {
		s.err = cmd(args)
	}
}

func (s *script) write(ws *Workspace, path, contents string) {
	if s.err == nil {
		s.err = ws.Write(path, contents)
	}
}

func (s *script) mkdir(ws *Workspace, path string) {
	if s.err == nil {
		s.err = ws.Mkdir(path)
	}
}

func (s *script) remove(ws *Workspace, path string) {
	if s.err == nil {
		s.err = ws.Remove(path)
	}
}

// identityConfig sets the committer identity the reference tool needs before
// it will create commits.
func identityConfig(s *script, ref CommandFunc) {
	s.run(ref, `config user.name "User Name"`)
	s.run(ref, "config user.email user@example.com")
}

// DefaultRegistry returns a registry populated with every built-in recipe.
func DefaultRegistry(logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)
	for _, r := range Builtins() {
		reg.Register(r)
	}
	return reg
}

// Builtins returns the full built-in recipe set.
func Builtins() []Recipe {
	return []Recipe{
		{
			Name: "add_all",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.mkdir(ws, "h")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add .")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add .")
				return s.err
			},
		},
		{
			Name: "add_directory",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/z.txt", "y/z")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add a/b")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add a/b/")
				return s.err
			},
		},
		{
			Name: "add_directory_removed",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.remove(ws, "a/b")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add a/b")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add a/b/")
				return s.err
			},
		},
		{
			Name: "add_file",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add c/d/e.txt")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add c/d/e.txt")
				return s.err
			},
		},
		{
			Name: "add_file_removed",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.remove(ws, "x.txt")
				s.remove(ws, "a/b/c.txt")
				s.remove(ws, "a/b/d.txt")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add x.txt")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add x.txt")
				return s.err
			},
		},
		{
			Name: "add_files",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "hello.txt", "hello")
				s.write(ws, "goodbye.txt", "goodbye")
				s.write(ws, "test.txt", "test")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("add .")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "add .")
				return s.err
			},
		},
		{
			Name: "commit",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.run(tool, "add .")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool(`commit -m "second commit"`)
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, `commit -m "second commit"`)
				return s.err
			},
		},
		{
			Name: "commit_to_pristine_repo",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool(`commit -m "initial commit"`)
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, `commit -m "initial commit"`)
				return s.err
			},
		},
		{
			Name: "create_annotated_tag",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool(`tag -a test_tag -m "this is the message"`)
			},
			RunReference: func(ref CommandFunc) error {
				return ref(`tag -a test_tag -m "this is the message"`)
			},
		},
		{
			Name: "create_branch",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("branch test_branch")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("branch test_branch")
			},
		},
		{
			Name: "create_branch_with_starting_point",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.run(tool, "tag starting_point")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "second commit to master"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("branch test_branch starting_point")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("branch test_branch starting_point")
			},
		},
		{
			Name: "delete_fails_with_current_branch",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.run(tool, "branch test_branch")
				s.run(tool, "switch test_branch")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("branch -d test_branch")
			},
			RunReference: func(ref CommandFunc) error {
				// The reference tool refuses to delete the current branch;
				// the nonzero exit is the expected outcome.
				_ = ref("branch -d test_branch")
				return nil
			},
		},
		{
			Name: "delete_tag",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.run(tool, `tag -a test_tag -m "this is the message"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("tag -d test_tag")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("tag -d test_tag")
			},
		},
		{
			Name: "hash_blob",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				s.write(ws, "a.txt", "a")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("hash-object -w a.txt")
			},
			RunReference: func(ref CommandFunc) error {
				s := &script{}
				s.run(ref, "config core.looseCompression 6")
				s.run(ref, "hash-object -w a.txt")
				return s.err
			},
		},
		{
			Name: "rm_directory",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("rm a/b")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("rm -r a/b")
			},
		},
		{
			Name: "rm_file",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("rm x.txt")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("rm x.txt")
			},
		},
		{
			Name: "rm_rejects_staged_changes",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				s.run(tool, "add .")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("rm a/b")
			},
			RunReference: func(ref CommandFunc) error {
				// Nothing to mirror: the tool side must refuse, leaving the
				// tree untouched, so the reference run is a no-op.
				return nil
			},
		},
		{
			Name: "rm_rejects_unstaged_changes",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.write(ws, "x.txt", "x")
				s.write(ws, "a/b.txt", "a/b")
				s.write(ws, "a/c.txt", "a/c")
				s.write(ws, "y/x.txt", "y/x")
				s.write(ws, "y/z.txt", "y/z")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.write(ws, "a/b/c.txt", "a/b/c")
				s.write(ws, "a/b/d.txt", "a/b/d")
				s.write(ws, "a/b/c/d.txt", "a/b/c/d")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("rm a/b")
			},
			RunReference: func(ref CommandFunc) error {
				return nil
			},
		},
		{
			Name: "switch_fails_with_staged_changes",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.write(ws, "a.txt", "a*")
				s.run(tool, "add .")
				s.run(tool, "branch test_branch")
				// The reflog records wall-clock times and would never diff
				// clean between the two runs.
				s.remove(ws, ".git/logs")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("switch test_branch")
			},
			RunReference: func(ref CommandFunc) error {
				_ = ref("switch test_branch")
				return nil
			},
		},
		{
			Name: "switch_to_existing_branch",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.run(tool, "branch test_branch")
				s.run(ref, "switch test_branch")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "second commit to test_branch"`)
				s.run(ref, "switch master")
				s.remove(ws, ".git/logs")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("switch test_branch")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("switch test_branch")
			},
		},
		{
			Name: "switch_to_headless",
			Setup: func(ws *Workspace, tool, ref CommandFunc) error {
				s := &script{}
				s.run(tool, "init")
				identityConfig(s, ref)
				s.run(ref, "config core.looseCompression 6")
				s.write(ws, "a.txt", "a")
				s.write(ws, "b.txt", "b")
				s.run(tool, "add .")
				s.run(tool, `commit -m "initial commit"`)
				s.run(tool, "tag starting_point")
				s.write(ws, "c/d/e.txt", "c/d/e")
				s.write(ws, "f/g.txt", "f/g")
				s.run(tool, "add .")
				s.run(tool, `commit -m "second commit to master"`)
				s.remove(ws, ".git/logs")
				return s.err
			},
			RunTool: func(tool CommandFunc) error {
				return tool("switch --detach starting_point")
			},
			RunReference: func(ref CommandFunc) error {
				return ref("switch --detach starting_point")
			},
		},
	}
}
