package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
)

const promptHeader = `You are an AI assistant for an electricity distribution monitoring system. Analyze the following fault data and provide:

1. **Failure Type Classification**: For each fault, classify the likely cause (transformer failure, line break, meter malfunction, voltage fluctuation, etc.)

2. **Smart Engineer Assignment**: Assign the most suitable engineer based on:
   - Engineer specialty matching the fault type
   - Current workload
   - Proximity to fault location
   - Urgency of the fault

3. **Route Optimization**: For multiple faults assigned to the same engineer, suggest an optimal route sequence

4. **Pattern Detection**: Identify any patterns (e.g., multiple faults in same feeder, time-based patterns, geographical clusters)

5. **Predictive Insights**: Based on the data, predict potential cascading failures or areas at risk
`

const promptSchema = `Provide your analysis in JSON format with the following structure:
{
  "failure_classifications": [
    {"customer_id": <id>, "fault_type": "<type>", "severity": "<low/medium/high>", "reason": "<explanation>"}
  ],
  "engineer_assignments": [
    {"customer_id": <id>, "assigned_engineer": "<name>", "reason": "<why this engineer>", "estimated_travel_time": "<minutes>"}
  ],
  "optimized_routes": [
    {"engineer": "<name>", "route_sequence": [<customer_ids>], "total_distance": "<km>", "estimated_time": "<hours>"}
  ],
  "patterns_detected": ["<pattern 1>", "<pattern 2>"],
  "predictions": ["<prediction 1>", "<prediction 2>"],
  "recommendations": ["<recommendation 1>", "<recommendation 2>"]
}`

// Prompt renders the request as the user message.
func Prompt(req coreadvisor.Request) (string, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fault data: %w", err)
	}
	var b strings.Builder
	b.WriteString(promptHeader)
	if req.Goal != "" {
		b.WriteString("\nGoal: ")
		b.WriteString(req.Goal)
		b.WriteString("\n")
	}
	b.WriteString("\nFault Data:\n")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString(promptSchema)
	return b.String(), nil
}
