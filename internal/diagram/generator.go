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

package diagram

import (
	"fmt"
	"strings"

	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/engine"
)

const usersNode = "users"

var labelReplacer = strings.NewReplacer(`"`, "'", "<", "", ">", "", "\n", " ")

// Generate draws the architecture as a left-to-right Mermaid flowchart.
// Traffic enters through networking, reaches compute and then the data
// layers; monitoring and security hang off the workload with dotted edges.
func Generate(arch engine.Architecture) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	fmt.Fprintf(&b, "    %s((Users))\n", usersNode)

	nodes := make(map[catalog.Category]string, len(arch.Selections))
	for _, s := range arch.Selections {
		id := nodeID(s.Entry.ID)
		nodes[s.Entry.Category] = id
		fmt.Fprintf(&b, "    %s[\"%s<br/>$%s/mo\"]\n", id, labelReplacer.Replace(s.Entry.Name), s.Cost.StringFixed(2))
	}

	entry := usersNode
	if net, ok := nodes[catalog.Networking]; ok {
		fmt.Fprintf(&b, "    %s -->|requests| %s\n", usersNode, net)
		entry = net
	}

	upstream := entry
	if app, ok := nodes[catalog.Compute]; ok {
		if entry == usersNode {
			fmt.Fprintf(&b, "    %s -->|requests| %s\n", usersNode, app)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", entry, app)
		}
		upstream = app
	}

	for _, category := range []catalog.Category{catalog.Storage, catalog.Database, catalog.Messaging} {
		if id, ok := nodes[category]; ok {
			fmt.Fprintf(&b, "    %s --> %s\n", upstream, id)
		}
	}

	workload := workloadNode(nodes)
	if mon, ok := nodes[catalog.Monitoring]; ok && workload != "" {
		fmt.Fprintf(&b, "    %s -. metrics .-> %s\n", workload, mon)
	}

	if sec, ok := nodes[catalog.Security]; ok {
		target := entry
		if target == usersNode {
			target = workload
		}
		if target != "" {
			fmt.Fprintf(&b, "    %s -. protects .-> %s\n", sec, target)
		}
	}

	return b.String()
}

// workloadNode is the node doing the application's work: compute, else the
// first data layer, else networking.
func workloadNode(nodes map[catalog.Category]string) string {
	for _, category := range []catalog.Category{catalog.Compute, catalog.Storage, catalog.Database, catalog.Messaging, catalog.Networking} {
		if id, ok := nodes[category]; ok {
			return id
		}
	}
	return ""
}

func nodeID(serviceID string) string {
	return "svc_" + strings.ReplaceAll(serviceID, "-", "_")
}
