package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
	"shopcms/internal/mailer"
)

var collaborationResource = resource{
	kind:       catalog.KindCollaboration,
	label:      "Collaboration",
	plural:     "Collaborations",
	returnItem: true,
}

func (app *application) collaborationRoutes(r chi.Router) {
	r.Post("/create", app.createCollaborationHandler)
	r.Get("/all", app.listCollaborationsHandler)
	r.Delete("/delete/{id}", app.deleteCollaborationHandler)
}

// CreateCollaboration godoc
//
//	@Summary		Submit a collaboration request
//	@Description	Accepts JSON or form bodies. The admin is notified by mail when SMTP is configured.
//	@Tags			Collaborations
//	@Accept			json
//	@Produce		json
//	@Param			firstName	formData	string	true	"First name"
//	@Param			lastName	formData	string	true	"Last name"
//	@Param			email		formData	string	true	"Email"
//	@Param			phoneNumber	formData	string	true	"Phone number"
//	@Param			company		formData	string	false	"Company"
//	@Param			message		formData	string	true	"Message"
//	@Success		201			{object}	envelope
//	@Failure		400			{object}	envelope
//	@Failure		500			{object}	envelope
//	@Router			/collaborations/create [post]
func (app *application) createCollaborationHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := app.createItem(w, r, collaborationResource)
	if !ok {
		return
	}
	app.notifyCollaboration(item)
}

// ListCollaborations godoc
//
//	@Summary	List collaboration requests, newest first
//	@Tags		Collaborations
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/collaborations/all [get]
func (app *application) listCollaborationsHandler(w http.ResponseWriter, r *http.Request) {
	app.listItems(w, r, collaborationResource)
}

// DeleteCollaboration godoc
//
//	@Summary	Delete a collaboration request
//	@Tags		Collaborations
//	@Produce	json
//	@Param		id	path		string	true	"Collaboration ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	500	{object}	envelope
//	@Router		/collaborations/delete/{id} [delete]
func (app *application) deleteCollaborationHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteItem(w, r, collaborationResource)
}

func (app *application) notifyCollaboration(item *catalog.Item) {
	if app.mailer == nil || app.config.mail.adminEmail == "" {
		return
	}

	data := mailer.CollaborationData{
		Username:    "Admin",
		FirstName:   item.String("firstName"),
		LastName:    item.String("lastName"),
		Email:       item.String("email"),
		PhoneNumber: item.String("phoneNumber"),
		Company:     item.String("company"),
		Message:     item.String("message"),
	}

	app.background(func() {
		status, err := app.mailer.Send(mailer.CollaborationTemplate, data.Username, app.config.mail.adminEmail, data)
		if err != nil {
			app.logger.Errorw("error sending collaboration email", "id", item.ID, "error", err.Error())
			return
		}
		app.logger.Infow("collaboration email sent", "id", item.ID, "status", status)
	})
}
