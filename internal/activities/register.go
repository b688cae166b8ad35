package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListDailyPapersActivity)
	w.RegisterActivity(a.CreatePaperActivity)
	w.RegisterActivity(a.SelectPapersActivity)
	w.RegisterActivity(a.WriteScriptActivity)
	w.RegisterActivity(a.SynthesizeSpeechActivity)
	w.RegisterActivity(a.AssembleAudioActivity)
}
