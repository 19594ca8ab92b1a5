package main

import "context"

func (cli *commandLine) resetProgress(progressID string) error {
	return cli.progSvc.Reset(context.Background(), progressID)
}

func (cli *commandLine) markCompleted(progressID, certificateRef string) error {
	return cli.progSvc.MarkCompleted(context.Background(), progressID, certificateRef)
}
