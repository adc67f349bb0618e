package api

import (
	"net/http"
)

type createListResponse struct {
	Message string `json:"message"`
	ListID  int64  `json:"listId"`
}

type addItemsResponse struct {
	Message    string `json:"message"`
	AddedCount int    `json:"addedCount"`
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	listID, err := s.svc.CreateList(r.Context(), currentUser(r), req.Name, req.toItems())
	if err != nil {
		s.respondServiceError(w, r, err, "create list")
		return
	}

	s.respondJSON(w, http.StatusCreated, createListResponse{
		Message: "list created",
		ListID:  listID,
	})
}

// handleGetOverview serves the caller's pending and purchased lists. The path
// user id must be the caller's own; anything else is reported as not found.
func (s *Server) handleGetOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requirePathID(w, r, "userId")
	if !ok {
		return
	}
	if userID != currentUser(r) {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	overview, err := s.svc.GetOverview(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err, "get lists")
		return
	}

	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleGetShoppingList(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	list, err := s.svc.GetShoppingList(r.Context(), listID, currentUser(r))
	if err != nil {
		s.respondServiceError(w, r, err, "get list")
		return
	}

	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetListDetail(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	detail, err := s.svc.GetListDetail(r.Context(), listID, currentUser(r))
	if err != nil {
		s.respondServiceError(w, r, err, "get list details")
		return
	}

	s.respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	if err := s.svc.DeleteList(r.Context(), listID, currentUser(r)); err != nil {
		s.respondServiceError(w, r, err, "delete list")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCompletePurchase(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	var req purchaseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	err := s.svc.CompletePurchase(r.Context(), listID, currentUser(r), toPurchaseItems(req.Items))
	if err != nil {
		s.respondServiceError(w, r, err, "complete purchase")
		return
	}

	s.respondJSON(w, http.StatusOK, messageResponse{Message: "purchase completed"})
}

func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	var req addItemsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	added, err := s.svc.AddItems(r.Context(), listID, currentUser(r), req.toItems())
	if err != nil {
		s.respondServiceError(w, r, err, "add items")
		return
	}

	s.respondJSON(w, http.StatusCreated, addItemsResponse{
		Message:    "items added",
		AddedCount: added,
	})
}

func (s *Server) handlePreviewPurchase(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.requirePathID(w, r, "listId")
	if !ok {
		return
	}

	var req previewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	total, err := s.svc.PreviewPurchase(r.Context(), listID, currentUser(r), toPurchaseItems(req.Items))
	if err != nil {
		s.respondServiceError(w, r, err, "preview purchase")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"total": total})
}

func (s *Server) handleUpdateItemPrice(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.requirePathID(w, r, "itemId")
	if !ok {
		return
	}

	var req updatePriceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.UpdateItemPrice(r.Context(), itemID, currentUser(r), *req.Price); err != nil {
		s.respondServiceError(w, r, err, "update item price")
		return
	}

	s.respondJSON(w, http.StatusOK, messageResponse{Message: "item price updated"})
}
