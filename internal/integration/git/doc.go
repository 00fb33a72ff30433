// Package git runs the git operations the plugin fetcher needs: cloning a
// plugin repository and checking out a pinned commit.
//
// Commands run through the git binary on PATH. Once started a command runs
// to completion; callers check for cancellation between commands.
//
// # Usage
//
//	client := git.NewClient()
//	if err := client.Clone("https://example.com/foo.git", dir, git.CloneOptions{}); err != nil {
//	    return err
//	}
//	if err := client.Checkout(dir, "v1.2.0"); err != nil {
//	    return err
//	}
package git
