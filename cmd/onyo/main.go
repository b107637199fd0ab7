// Command onyo is a text-based inventory manager backed by git: every
// asset is a YAML document at a path inside a git working tree, and every
// mutation is a version-control commit.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	ctx := context.Background()
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	globals, rest := parseGlobalFlags(os.Args[1:])
	command := rest[0]
	args := rest[1:]

	if command == "shell-completion" {
		if err := runShellCompletion(args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	root, err := resolveRoot(globals.changeDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := newApp(ctx, root, command == "init")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var runErr error
	switch command {
	case "init":
		runErr = cmdInit(ctx, root, args)
	case "new":
		runErr = app.cmdNew(ctx, globals, args)
	case "edit":
		runErr = app.cmdEdit(ctx, globals, args)
	case "mv":
		runErr = app.cmdMove(ctx, globals, args)
	case "mkdir":
		runErr = app.cmdMkdir(ctx, globals, args)
	case "rm":
		runErr = app.cmdRemove(ctx, globals, args)
	case "rmdir":
		runErr = app.cmdRmdir(ctx, globals, args)
	case "set":
		runErr = app.cmdSet(ctx, globals, args)
	case "unset":
		runErr = app.cmdUnset(ctx, globals, args)
	case "get":
		runErr = app.cmdGet(ctx, globals, args)
	case "tree":
		runErr = app.cmdTree(ctx, args)
	case "show":
		runErr = app.cmdShow(ctx, args)
	case "tsv-to-yaml":
		runErr = app.cmdTsvToYAML(ctx, globals, args)
	case "cat":
		runErr = app.cmdCat(ctx, args)
	case "config":
		runErr = app.cmdConfig(ctx, args)
	case "fsck":
		runErr = app.cmdFsck(ctx)
	case "history":
		runErr = app.cmdHistory(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "onyo: unknown command %q\n", command)
		os.Exit(2)
	}

	if runErr != nil {
		if ec, ok := runErr.(interface{ ExitCode() int }); ok {
			if msg := runErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`onyo: a text-based inventory manager backed by git

Usage: onyo [-C PATH] [-q] [-y] [-m MSG]... [--no-auto-message] <command> [args]

Commands:
  init [DIR]                create a new inventory repository
  new                        create new assets
  edit ASSET...               open assets in $EDITOR
  mv SRC... DST                move or rename assets/directories
  mkdir DIR...                create tracked directories
  rm PATH...                  remove assets or directories
  rmdir DIR...                 remove an empty directory (or convert an asset dir to a file)
  set                          set key/value pairs on assets
  unset                        unset keys on assets
  get                          query assets
  tree DIR...                  print the directory tree
  show PATH...                 print assets as rendered documents
  tsv-to-yaml FILE             batch-create assets from a TSV file
  cat ASSET...                  print raw asset YAML
  config                       read/write onyo.* configuration
  fsck                          check repository invariants
  history PATH                  show an asset's commit history
  shell-completion             print a shell completion script`)
}
