// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package decide maps three yes/no questions about an application to the
// application type the planner should use.
package decide

import "github.com/your-org/arch-planner/internal/engine"

// Answers to the "help me decide" questions
type Answers struct {
	UserFacing bool `json:"userFacing"`
	Instant    bool `json:"instant"`
	StoresData bool `json:"storesData"`
}

// Question is one prompt shown to the user
type Question struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
	Help   string `json:"help"`
}

// Questions in the order they are asked
var Questions = []Question{
	{
		Key:    "userFacing",
		Prompt: "Will people use it directly through a browser or app?",
		Help:   "Answer no for back-office jobs, integrations or machine-to-machine APIs.",
	},
	{
		Key:    "instant",
		Prompt: "Do users expect an instant response to each action?",
		Help:   "Answer no if work can be queued and processed in the background.",
	},
	{
		Key:    "storesData",
		Prompt: "Does it store files or user data?",
		Help:   "Uploads, documents, profiles and records all count.",
	},
}

// Result is the suggested application type and why
type Result struct {
	ApplicationType string `json:"applicationType"`
	Reason          string `json:"reason"`
}

type suggestion struct {
	appType string
	reason  string
}

// outcomes covers all eight answer combinations
var outcomes = map[Answers]suggestion{
	{UserFacing: true, Instant: true, StoresData: true}: {
		engine.AppFullStack, "Interactive users working with stored data need a front end, application logic and persistence.",
	},
	{UserFacing: true, Instant: true, StoresData: false}: {
		engine.AppStaticWebsite, "Interactive pages with nothing to store can be served as static content.",
	},
	{UserFacing: false, Instant: true, StoresData: true}: {
		engine.AppBackendAPI, "Other systems calling in for immediate answers over stored data is an API workload.",
	},
	{UserFacing: false, Instant: true, StoresData: false}: {
		engine.AppBackendAPI, "Immediate machine-to-machine responses are an API workload.",
	},
	{UserFacing: true, Instant: false, StoresData: true}: {
		engine.AppFileStorage, "Users handing over files that are processed later is a storage workload.",
	},
	{UserFacing: false, Instant: false, StoresData: true}: {
		engine.AppFileStorage, "Background handling of stored data centres on durable storage.",
	},
	{UserFacing: true, Instant: false, StoresData: false}: {
		engine.AppEventDriven, "User actions that are processed asynchronously fit an event-driven design.",
	},
	{UserFacing: false, Instant: false, StoresData: false}: {
		engine.AppEventDriven, "Background work with nothing to store fits an event-driven design.",
	},
}

// Suggest returns the application type for a set of answers
func Suggest(a Answers) Result {
	s := outcomes[a]
	return Result{ApplicationType: s.appType, Reason: s.reason}
}
