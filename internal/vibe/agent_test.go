package vibe_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/common/llm"
	"crosswalk.app/api/core/config"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/scm"
	"crosswalk.app/api/internal/vibe"
)

var _ = Describe("Agent", func() {
	var (
		ctx        context.Context
		client     *scriptedLLM
		gateway    *mockGateway
		deployer   *mockDeploy
		transcript *vibe.MemoryTranscript
		events     *eventLog
		cfg        config.VibeConfig
		req        vibe.Request
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &scriptedLLM{}
		gateway = &mockGateway{}
		deployer = &mockDeploy{}
		transcript = vibe.NewMemoryTranscript()
		events = &eventLog{}
		cfg = config.VibeConfig{
			MaxIterations:      20,
			RepairEnabled:      true,
			PromisePattern:     config.DefaultPromisePattern,
			HistoryLimit:       20,
			MaxTokens:          16384,
			DeployPollInterval: time.Millisecond,
			DeployPollAttempts: 5,
		}
		req = vibe.Request{
			Vibe:    model.Vibe{ID: 7, UserID: 3, Name: "Blue header", BranchName: "vibe/alice-k2j"},
			UserID:  3,
			Message: "Make the header blue",
		}
	})

	run := func() (*vibe.Result, error) {
		agent, err := vibe.NewAgent(client, gateway, deployer, transcript, cfg)
		Expect(err).NotTo(HaveOccurred())
		return agent.Run(ctx, req, events)
	}

	lastEvent := func() vibe.Event {
		Expect(events.events).NotTo(BeEmpty())
		return events.events[len(events.events)-1]
	}

	terminalCount := func() int {
		n := 0
		for _, e := range events.events {
			if e.Terminal() {
				n++
			}
		}
		return n
	}

	Describe("a plain reply", func() {
		It("persists exactly one user and one assistant message", func() {
			client.responses = []*llm.AgentResponse{textResponse("The header lives in MapView.tsx.")}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())

			all := transcript.All()
			Expect(all).To(HaveLen(2))
			Expect(all[0].Role).To(Equal(model.VibeRoleUser))
			Expect(all[0].Content).To(Equal("Make the header blue"))
			Expect(all[1].Role).To(Equal(model.VibeRoleAssistant))
			Expect(all[1].Content).To(Equal("The header lives in MapView.tsx."))

			Expect(res.Outcome).To(Equal(vibe.OutcomeCompleted))
			Expect(events.types()).To(Equal([]vibe.EventType{vibe.EventStatus, vibe.EventDone}))
			Expect(lastEvent().Message).To(Equal("The header lives in MapView.tsx."))
			Expect(lastEvent().ToolsUsed).To(BeEmpty())
		})

		It("assigns each persisted message its own id before storing it", func() {
			client.responses = []*llm.AgentResponse{textResponse("Sure.")}
			recording := &idRecordingTranscript{MemoryTranscript: vibe.NewMemoryTranscript()}

			agent, err := vibe.NewAgent(client, gateway, deployer, recording, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = agent.Run(ctx, req, events)
			Expect(err).NotTo(HaveOccurred())

			Expect(recording.ids).To(HaveLen(2))
			Expect(recording.ids[0]).NotTo(BeZero())
			Expect(recording.ids[1]).NotTo(BeZero())
			Expect(recording.ids[0]).NotTo(Equal(recording.ids[1]))
		})

		It("stores a placeholder when the model says nothing", func() {
			client.responses = []*llm.AgentResponse{textResponse("   ")}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("I've reviewed the code. Let me know what changes you'd like!"))
			Expect(transcript.All()).To(HaveLen(2))
		})

		It("replays history oldest first without empty messages", func() {
			for _, m := range []model.VibeMessage{
				{VibeID: 7, Role: model.VibeRoleUser, Content: "first"},
				{VibeID: 7, Role: model.VibeRoleAssistant, Content: ""},
				{VibeID: 7, Role: model.VibeRoleAssistant, Content: "second"},
				{VibeID: 8, Role: model.VibeRoleUser, Content: "other vibe"},
			} {
				Expect(transcript.Create(ctx, &m)).To(Succeed())
			}
			client.responses = []*llm.AgentResponse{textResponse("ok")}

			_, err := run()
			Expect(err).NotTo(HaveOccurred())

			sent := client.requests[0].Messages
			Expect(sent).To(HaveLen(4))
			Expect(sent[0].Role).To(Equal(llm.RoleSystem))
			Expect(sent[0].Content).To(ContainSubstring("vibe/alice-k2j"))
			Expect(sent[1].Content).To(Equal("first"))
			Expect(sent[2].Content).To(Equal("second"))
			Expect(sent[3]).To(Equal(llm.Message{Role: llm.RoleUser, Content: "Make the header blue"}))
			Expect(client.requests[0].MaxTokens).To(Equal(16384))
			Expect(client.requests[0].Tools).To(HaveLen(3))
		})
	})

	Describe("a single write", func() {
		BeforeEach(func() {
			client.responses = []*llm.AgentResponse{
				toolResponse(writeCall("call_1", "frontend/src/components/Header.tsx")),
				textResponse("Made the header blue."),
			}
			gateway.compareFn = func(context.Context, string) scm.Comparison {
				return scm.Comparison{AheadBy: 1, Files: []string{"frontend/src/components/Header.tsx"}}
			}
			deployer.states = []deploy.Status{
				{State: deploy.StateBuilding},
				{State: deploy.StateBuilding},
				{State: deploy.StateReady, URL: "https://crswlk-git-vibe.vercel.app"},
			}
		})

		It("commits once and reports one successful tool", func() {
			res, err := run()
			Expect(err).NotTo(HaveOccurred())

			Expect(gateway.commits).To(HaveLen(1))
			Expect(gateway.commits[0].Action).To(Equal(scm.ActionUpsert))

			ends := events.ofType(vibe.EventToolEnd)
			Expect(ends).To(HaveLen(1))
			Expect(*ends[0].Success).To(BeTrue())
			Expect(ends[0].Message).To(Equal("✅ Saved Header.tsx"))

			done := lastEvent()
			Expect(done.Type).To(Equal(vibe.EventDone))
			Expect(done.ToolsUsed).To(HaveLen(1))
			Expect(done.ToolsUsed[0]).To(HavePrefix("[write_file] ✅ Committed!"))
			Expect(done.Vibe.HasChanges).To(BeTrue())
			Expect(done.Vibe.AheadBy).To(Equal(1))

			Expect(res.Wrote).To(BeTrue())
			Expect(res.Iterations).To(Equal(1))
		})

		It("feeds the tool result back paired with its call", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())

			second := client.requests[1].Messages
			assistant := second[len(second)-2]
			result := second[len(second)-1]
			Expect(assistant.ToolCalls).To(HaveLen(1))
			Expect(result.Role).To(Equal(llm.RoleTool))
			Expect(result.ToolCallID).To(Equal("call_1"))
			Expect(result.Content).To(Equal("✅ Committed!\nPath: frontend/src/components/Header.tsx\nCommit: abcdef1"))
			Expect(result.IsError).To(BeFalse())
		})

		It("emits deployment changes before done, once per state", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())

			deployments := events.ofType(vibe.EventDeployment)
			Expect(deployments).To(HaveLen(3))
			Expect(deployments[0].State).To(Equal(deploy.StateQueued))
			Expect(deployments[1].State).To(Equal(deploy.StateBuilding))
			Expect(deployments[2].State).To(Equal(deploy.StateReady))
			Expect(deployments[2].URL).To(Equal("https://crswlk-git-vibe.vercel.app"))

			Expect(lastEvent().Type).To(Equal(vibe.EventDone))
			Expect(terminalCount()).To(Equal(1))
		})

		DescribeTable("finishes without deployment events when no provider is configured",
			func(provider deploy.Provider) {
				cfg.DeployPollInterval = 50 * time.Millisecond
				cfg.DeployPollAttempts = 30
				agent, err := vibe.NewAgent(client, gateway, provider, transcript, cfg)
				Expect(err).NotTo(HaveOccurred())

				start := time.Now()
				res, err := agent.Run(ctx, req, events)
				Expect(err).NotTo(HaveOccurred())

				Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
				Expect(res.Wrote).To(BeTrue())
				Expect(events.ofType(vibe.EventDeployment)).To(BeEmpty())
				Expect(lastEvent().Type).To(Equal(vibe.EventDone))
			},
			Entry("bare", deploy.Disabled{}),
			Entry("behind a breaker", deploy.WithBreaker(deploy.Disabled{}, "deploy-")),
		)

		It("skips deployment polling when nothing was written", func() {
			client.responses = []*llm.AgentResponse{
				toolResponse(readCall("call_1", "frontend/src/App.tsx")),
				textResponse("Looks fine."),
			}

			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(events.ofType(vibe.EventDeployment)).To(BeEmpty())
			Expect(deployer.calls).To(BeZero())
		})
	})

	Describe("tool failures", func() {
		It("turns a failed commit into an error-flagged result and keeps going", func() {
			gateway.commitFilesFn = func(context.Context, string, []scm.FileChange, string) (*scm.Commit, error) {
				return nil, &scm.Error{Op: "commit", Branch: "vibe/alice-k2j", Err: errors.New("409 conflict")}
			}
			client.responses = []*llm.AgentResponse{
				toolResponse(writeCall("call_1", "src/App.tsx")),
				textResponse("The commit failed, please retry."),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Wrote).To(BeFalse())

			ends := events.ofType(vibe.EventToolEnd)
			Expect(ends).To(HaveLen(1))
			Expect(*ends[0].Success).To(BeFalse())
			Expect(ends[0].Message).To(Equal("❌ Failed: write_file"))

			result := client.requests[1].Messages[len(client.requests[1].Messages)-1]
			Expect(result.IsError).To(BeTrue())
			Expect(result.Content).To(HavePrefix("Error executing write_file:"))
			Expect(lastEvent().ToolsUsed).To(BeEmpty())
		})

		It("executes every call of one response before asking the model again", func() {
			client.responses = []*llm.AgentResponse{
				toolResponse(readCall("a", "src/App.tsx"), readCall("b", "src/main.tsx")),
				textResponse("Read both."),
			}

			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls()).To(Equal(2))

			msgs := client.requests[1].Messages
			Expect(msgs[len(msgs)-2].ToolCallID).To(Equal("a"))
			Expect(msgs[len(msgs)-1].ToolCallID).To(Equal("b"))
		})
	})

	Describe("the repair pass", func() {
		It("forces exactly one continuation when a change was promised but not made", func() {
			client.responses = []*llm.AgentResponse{
				textResponse("Great idea! I will now add a button to the header."),
				toolResponse(writeCall("call_1", "src/Header.tsx")),
				textResponse("Added the button."),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())

			nudges := 0
			for _, r := range client.requests {
				last := r.Messages[len(r.Messages)-1]
				if last.Role == llm.RoleUser && strings.Contains(last.Content, "didn't call write_file") {
					nudges++
				}
			}
			Expect(nudges).To(Equal(1))

			var completing int
			for _, e := range events.ofType(vibe.EventStatus) {
				if e.Message == "Completing changes..." {
					completing++
				}
			}
			Expect(completing).To(Equal(1))

			Expect(res.Repaired).To(BeTrue())
			Expect(res.Outcome).To(Equal(vibe.OutcomeRepaired))
			Expect(res.Message).To(Equal("Added the button."))
			Expect(gateway.commits).To(HaveLen(1))
			Expect(lastEvent().Type).To(Equal(vibe.EventDone))
		})

		It("is skipped when disabled", func() {
			cfg.RepairEnabled = false
			client.responses = []*llm.AgentResponse{
				textResponse("I will now add a button to the header."),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls()).To(Equal(1))
			Expect(res.Repaired).To(BeFalse())
		})

		It("does not run after a successful write", func() {
			client.responses = []*llm.AgentResponse{
				toolResponse(writeCall("call_1", "src/Header.tsx")),
				textResponse("Now I'll update the footer too next time."),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls()).To(Equal(2))
			Expect(res.Repaired).To(BeFalse())
		})

		It("keeps the original reply when the continuation fails", func() {
			client.responses = []*llm.AgentResponse{
				textResponse("Let me update the header."),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("Let me update the header."))
			Expect(lastEvent().Type).To(Equal(vibe.EventDone))
		})
	})

	Describe("the iteration ceiling", func() {
		It("halts a model that never stops calling tools", func() {
			cfg.MaxIterations = 3
			client.chatFn = func(call int, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return toolResponse(readCall("call", "src/App.tsx")), nil
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())

			Expect(client.calls()).To(Equal(4))
			Expect(res.Iterations).To(Equal(3))
			Expect(res.Outcome).To(Equal(vibe.OutcomeCeiling))
			Expect(lastEvent().Type).To(Equal(vibe.EventDone))
			Expect(terminalCount()).To(Equal(1))
		})
	})

	Describe("completion failures", func() {
		It("emits an error and persists only the user message", func() {
			client.chatFn = func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
				return nil, errors.New("upstream 529")
			}

			_, err := run()
			Expect(err).To(HaveOccurred())

			Expect(lastEvent()).To(Equal(vibe.Event{Type: vibe.EventError, Message: "Failed to get AI response"}))
			Expect(terminalCount()).To(Equal(1))
			all := transcript.All()
			Expect(all).To(HaveLen(1))
			Expect(all[0].Role).To(Equal(model.VibeRoleUser))
		})

		It("is fatal mid-loop too", func() {
			client.chatFn = func(call int, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				if call == 0 {
					return toolResponse(readCall("call_1", "src/App.tsx")), nil
				}
				return nil, errors.New("connection reset")
			}

			_, err := run()
			Expect(err).To(HaveOccurred())
			Expect(lastEvent().Message).To(Equal("AI temporarily unavailable, please try again"))
			Expect(transcript.All()).To(HaveLen(1))
		})
	})

	Describe("client disconnect", func() {
		It("keeps running by default", func() {
			req.Detached = func() bool { return true }
			client.responses = []*llm.AgentResponse{
				toolResponse(readCall("call_1", "src/App.tsx")),
				textResponse("done"),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls()).To(Equal(2))
			Expect(res.Message).To(Equal("done"))
		})

		It("stops before the next model call when configured to", func() {
			cfg.CancelOnDisconnect = true
			req.Detached = func() bool { return true }
			client.responses = []*llm.AgentResponse{
				toolResponse(writeCall("call_1", "src/App.tsx")),
				textResponse("never reached"),
			}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls()).To(Equal(1))
			Expect(gateway.commits).To(HaveLen(1))
			Expect(res.Outcome).To(Equal(vibe.OutcomeDetached))
			Expect(res.Message).To(Equal("Done! I've made the changes you requested."))
		})
	})

	It("rejects an invalid promise pattern", func() {
		cfg.PromisePattern = "(unclosed"
		_, err := vibe.NewAgent(client, gateway, deployer, transcript, cfg)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("PromiseMatcher", func() {
	var matcher *vibe.PromiseMatcher

	BeforeEach(func() {
		var err error
		matcher, err = vibe.NewPromiseMatcher(config.DefaultPromisePattern)
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("PromisedChanges",
		func(text string, want bool) {
			Expect(matcher.PromisedChanges(text)).To(Equal(want))
		},
		Entry("I will now add", "I will now add a button", true),
		Entry("now I'll", "Now I'll make it blue.", true),
		Entry("let me update", "Let me update the store.", true),
		Entry("let me now create", "let me now create a component", true),
		Entry("I'll modify", "I'll modify MapView.tsx", true),
		Entry("past tense", "I updated the header.", false),
		Entry("question", "Which color would you like?", false),
		Entry("empty", "", false),
	)
})
