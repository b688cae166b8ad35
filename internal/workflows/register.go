package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(ScriptWritingWorkflow)
	w.RegisterWorkflow(SpeechSynthesisWorkflow)
	w.RegisterWorkflow(AudioAssemblyWorkflow)
}
