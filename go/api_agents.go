package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	agentmapper "github.com/Apurer/retail-ops/internal/domains/agents/adapters/http/mapper"
	agentports "github.com/Apurer/retail-ops/internal/domains/agents/ports"
)

// AgentsAPI provisions delivery agents and toggles their availability.
type AgentsAPI struct {
	service agentports.Service
}

func NewAgentsAPI(service agentports.Service) AgentsAPI {
	return AgentsAPI{service: service}
}

// Post /v1/agents
func (api *AgentsAPI) CreateAgent(c *gin.Context) {
	var payload agentmapper.CreateAgentRequest
	if !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.CreateAgent(c.Request.Context(), agentmapper.ToCreateInput(payload, c.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, agentmapper.FromProvision(result))
}

// Get /v1/agents?available=true
func (api *AgentsAPI) ListAgents(c *gin.Context) {
	var filter agentports.Filter
	if !queryParam(c, "available", false, &filter.AvailableOnly) {
		return
	}
	agents, err := api.service.ListAgents(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentmapper.FromAgents(agents))
}

// Get /v1/agents/:agentId
func (api *AgentsAPI) GetAgent(c *gin.Context) {
	agentID, ok := pathParam(c, "agentId")
	if !ok {
		return
	}
	agent, err := api.service.GetAgent(c.Request.Context(), agentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentmapper.FromAgent(agent))
}

// Put /v1/agents/:agentId
func (api *AgentsAPI) UpdateAgent(c *gin.Context) {
	agentID, ok := pathParam(c, "agentId")
	if !ok {
		return
	}
	var payload agentmapper.UpdateAgentRequest
	if !bindJSON(c, &payload) {
		return
	}
	agent, err := api.service.UpdateAgent(c.Request.Context(), agentmapper.ToUpdateInput(agentID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentmapper.FromAgent(agent))
}

// Delete /v1/agents/:agentId
func (api *AgentsAPI) DeleteAgent(c *gin.Context) {
	agentID, ok := pathParam(c, "agentId")
	if !ok {
		return
	}
	if err := api.service.DeleteAgent(c.Request.Context(), agentID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Put /v1/agents/:agentId/availability
func (api *AgentsAPI) SetAvailability(c *gin.Context) {
	agentID, ok := pathParam(c, "agentId")
	if !ok {
		return
	}
	var payload agentmapper.AvailabilityRequest
	if !bindJSON(c, &payload) {
		return
	}
	agent, err := api.service.SetAvailability(c.Request.Context(), agentID, *payload.Available)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentmapper.FromAgent(agent))
}
